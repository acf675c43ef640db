// Package engine contains the high-level orchestration for an onboarding
// run: an explicit sequential state machine from request interpretation to
// deployment registration.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golden-path-k8s/onboardctl/internal/render"
	"github.com/golden-path-k8s/onboardctl/internal/repos"
)

// Stage names one state of the onboarding state machine.
type Stage string

const (
	StageStart           Stage = "Start"
	StageExtracting      Stage = "Extracting"
	StageProvisioning    Stage = "Provisioning"
	StageRenderingSource Stage = "RenderingSource"
	StageRenderingConfig Stage = "RenderingConfig"
	StageRegistering     Stage = "Registering"
	StageDone            Stage = "Done"
	StageFailed          Stage = "Failed"
)

// Extractor resolves a request into an application identifier. It never
// fails; degraded extraction is absorbed behind this interface.
type Extractor interface {
	Extract(ctx context.Context, request string) string
}

// Provisioner resolves the source and config repositories for an app.
type Provisioner interface {
	Provision(ctx context.Context, app string) (source, config repos.RepositoryRef, err error)
}

// Populator renders a template root into a repository and pushes the result.
type Populator interface {
	Populate(ctx context.Context, ref repos.RepositoryRef, templateRoot, message string, bindings render.Bindings) error
}

// Registrar applies the deployment descriptor for an app.
type Registrar interface {
	Register(ctx context.Context, app string, configRepo repos.RepositoryRef) error
}

// Options carries run-level settings the stages do not own themselves.
type Options struct {
	// SourceTemplate is the template root for the source repository.
	SourceTemplate string
	// ConfigTemplate is the template root for the config repository.
	ConfigTemplate string
	// Owner is the repository owner, used for derived image names.
	Owner string
	// Author is recorded in template bindings.
	Author string
}

// Transition records one state-machine step for the run report.
type Transition struct {
	Stage Stage
	At    time.Time
	Err   error
}

// Result is the run report: the identifier, the artifacts known to exist,
// and the ordered transitions. On failure it names the failing stage so an
// operator can inspect or clean up; nothing is rolled back automatically.
type Result struct {
	Request     string
	App         string
	Source      repos.RepositoryRef
	Config      repos.RepositoryRef
	Descriptor  string
	Registered  bool
	Transitions []Transition
	FailedStage Stage
	Err         error
}

// Artifacts lists the externally visible artifacts created or resolved so
// far, for failure reports and remediation.
func (r *Result) Artifacts() []string {
	var out []string
	if r.Source.Name != "" {
		out = append(out, "repository "+r.Source.Name)
	}
	if r.Config.Name != "" {
		out = append(out, "repository "+r.Config.Name)
	}
	if r.Registered {
		out = append(out, "descriptor "+r.Descriptor)
	}
	return out
}

// Engine sequences the onboarding stages.
type Engine struct {
	extractor   Extractor
	provisioner Provisioner
	populator   Populator
	registrar   Registrar
	opts        Options
	logger      *slog.Logger
}

// New constructs an Engine over the injected stages.
func New(extractor Extractor, provisioner Provisioner, populator Populator, registrar Registrar, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		extractor:   extractor,
		provisioner: provisioner,
		populator:   populator,
		registrar:   registrar,
		opts:        opts,
		logger:      logger,
	}
}

// Run executes one onboarding run. The stages are strictly sequential: the
// config render needs both repository URLs, and a repository must exist
// before it is populated. The first failure halts the run; partial side
// effects stay in place and are reported on the Result.
func (e *Engine) Run(ctx context.Context, request string) (*Result, error) {
	res := &Result{Request: request}
	e.enter(res, StageStart)

	e.enter(res, StageExtracting)
	res.App = e.extractor.Extract(ctx, request)
	e.logger.Info("application identifier resolved", "app", res.App)

	e.enter(res, StageProvisioning)
	source, config, err := e.provisioner.Provision(ctx, res.App)
	if err != nil {
		return res, e.fail(res, StageProvisioning, err)
	}
	res.Source = source
	res.Config = config

	bindings := e.bindings(res)
	message := fmt.Sprintf("Initial commit for %s", res.App)

	e.enter(res, StageRenderingSource)
	if err := e.populator.Populate(ctx, source, e.opts.SourceTemplate, message, bindings); err != nil {
		return res, e.fail(res, StageRenderingSource, err)
	}

	e.enter(res, StageRenderingConfig)
	if err := e.populator.Populate(ctx, config, e.opts.ConfigTemplate, message, bindings); err != nil {
		return res, e.fail(res, StageRenderingConfig, err)
	}

	e.enter(res, StageRegistering)
	if err := e.registrar.Register(ctx, res.App, config); err != nil {
		return res, e.fail(res, StageRegistering, err)
	}
	res.Descriptor = res.App
	res.Registered = true

	e.enter(res, StageDone)
	return res, nil
}

// bindings builds the variable set exposed to both template trees. The app
// identifier is reused verbatim for every derived name.
func (e *Engine) bindings(res *Result) render.Bindings {
	description := "New application created by onboardctl"
	if req := strings.TrimSpace(res.Request); req != "" {
		if len(req) > 100 {
			req = req[:100]
		}
		description = "Application created from request: " + req
	}

	return render.Bindings{
		"AppName":       res.App,
		"Description":   description,
		"Language":      "NodeJS",
		"Author":        e.opts.Author,
		"SourceRepoURL": res.Source.CloneURL,
		"ConfigRepoURL": res.Config.CloneURL,
		"ImageName":     e.opts.Owner + "/" + res.App,
		"ImageTag":      "latest",
		"IngressHost":   res.App + ".local",
	}
}

func (e *Engine) enter(res *Result, stage Stage) {
	res.Transitions = append(res.Transitions, Transition{Stage: stage, At: time.Now().UTC()})
	e.logger.Info("stage entered", "stage", string(stage), "app", res.App)
}

func (e *Engine) fail(res *Result, stage Stage, err error) error {
	res.FailedStage = stage
	res.Err = err
	res.Transitions = append(res.Transitions, Transition{Stage: StageFailed, At: time.Now().UTC(), Err: err})
	e.logger.Error("stage failed",
		"stage", string(stage), "app", res.App, "artifacts", strings.Join(res.Artifacts(), "; "), "error", err)
	return fmt.Errorf("stage %s for app %q: %w", stage, res.App, err)
}
