package optimizer

import "context"

// Suite runs every maintenance task in sequence
type Suite struct {
	env   *Env
	steps []suiteStep
}

type suiteStep struct {
	name string
	run  func(context.Context) error
}

// NewSuite builds the full optimization suite: cleanup, docker, tuning and
// hardening.
func NewSuite(env *Env) *Suite {
	return &Suite{
		env: env,
		steps: []suiteStep{
			{"System cleanup", NewCleanupTuner(env).Run},
			{"Docker cleanup", NewDockerTuner(env).Run},
			{"System optimization", NewOptimizeTuner(env, false).Run},
			{"Security hardening", NewHardenTuner(env).Run},
		},
	}
}

// Run asks for confirmation and then runs each step. A failing step is
// reported and the suite moves on.
func (s *Suite) Run(ctx context.Context) error {
	if err := s.env.CheckRoot(); err != nil {
		return err
	}

	console := s.env.Console
	console.Step("Full Optimization Suite")
	console.Warning("This will run all optimization tasks...")

	if !console.Confirm("Continue?") {
		console.Info("Cancelled")
		return nil
	}

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := step.run(ctx); err != nil {
			console.Error("%s failed: %v", step.name, err)
		}
	}

	console.Println()
	console.Success("Full optimization completed!")
	console.Log("Full optimization suite completed")

	return nil
}
