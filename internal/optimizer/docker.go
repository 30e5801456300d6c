package optimizer

import "context"

// DockerTuner prunes unused Docker objects
type DockerTuner struct {
	env *Env
}

// NewDockerTuner creates a new docker tuner
func NewDockerTuner(env *Env) *DockerTuner {
	return &DockerTuner{env: env}
}

// Tasks returns the prune sequence.
func (dt *DockerTuner) Tasks() []Task {
	return []Task{
		{Name: "Pruning unused containers", Command: "docker container prune -f"},
		{Name: "Pruning unused images", Command: "docker image prune -a -f"},
		{Name: "Pruning unused volumes", Command: "docker volume prune -f"},
		{Name: "Pruning unused networks", Command: "docker network prune -f"},
		{Name: "System prune", Command: "docker system prune -a -f"},
	}
}

// Run prunes Docker if it is installed; a missing docker binary is not an error.
func (dt *DockerTuner) Run(ctx context.Context) error {
	if err := dt.env.CheckRoot(); err != nil {
		return err
	}

	console := dt.env.Console
	console.Step("Docker Cleanup")

	if _, err := dt.env.lookPath("docker"); err != nil {
		console.Warning("Docker not found, skipping...")
		return nil
	}

	if failed := runTasks(ctx, dt.env, "Docker: ", dt.Tasks()); failed > 0 {
		console.Warning("%d docker task(s) failed", failed)
	}

	return ctx.Err()
}
