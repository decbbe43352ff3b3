package cli

import (
	"context"
	"sync"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/margin/desktop"
	"github.com/robinvdvleuten/margin/scheduler"
)

type DesktopCmd struct{}

func (cmd *DesktopCmd) Run(ctx *kong.Context, globals *Globals) error {
	if !desktop.Available {
		return desktop.ErrUnavailable
	}

	env, err := setup(ctx, globals, "desktop")
	if err != nil {
		return err
	}
	defer env.finish()

	a, closeDB, err := env.openApp()
	if err != nil {
		return err
	}
	defer closeDB()

	sched, err := scheduler.New(a, env.cfg.Schedule, env.logger)
	if err != nil {
		return err
	}
	return withScheduler(env.ctx, sched, func() error {
		return desktop.Run(a, "")
	})
}

// withScheduler runs sched while fn runs, and stops it before returning so no
// job fires after the caller closes the database.
func withScheduler(ctx context.Context, sched *scheduler.Scheduler, fn func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	err := fn()
	cancel()
	wg.Wait()
	return err
}
