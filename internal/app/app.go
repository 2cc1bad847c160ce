package app

import (
	"context"

	"github.com/niveshbansal07/NB-downloader-Backend/internal/app/server"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/config"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/repository"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/service"
	"golang.org/x/sync/errgroup"
)

type App struct {
	conf *config.Config
}

func NewApp(conf *config.Config) *App {
	return &App{
		conf: conf,
	}
}

func (app *App) Run(ctx context.Context) error {
	// TTL well above the job timeout so the reaper never races a live job
	registry := repository.NewScratchRegistry(2 * app.conf.Download.JobTimeout)

	vs, err := service.NewVideoService(app.conf, registry)
	if err != nil {
		return err
	}

	handler := service.NewHTTPHandler(vs, app.conf.Download.JobTimeout)

	errGroup, errCtx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		return server.New(app.conf, handler).Run(errCtx)
	})

	return errGroup.Wait()
}
