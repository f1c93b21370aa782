package cli

import (
	"fmt"

	"mediashelf/internal/audit"
	"mediashelf/internal/config"
	"mediashelf/internal/logging"
	"mediashelf/internal/media"
	"mediashelf/internal/repository"
	"mediashelf/internal/services"
	"mediashelf/internal/shared"

	"github.com/spf13/afero"
)

// app wires the repository and services used by the commands.
type app struct {
	Conf *config.Config
	Repo *repository.Repository

	Storage    *services.StorageService
	Tags       services.TagService
	Items      services.ItemService
	Listing    services.ListingService
	Reconciler services.ReconcileService
	Rescan     services.RescanService
}

// openApp opens the database, bootstraps a fresh schema and refuses to work
// on an outdated one.
func openApp(conf *config.Config, fs afero.Fs) (*app, error) {
	repo, err := repository.NewRepository(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	if err := repo.EnsureSchemaBootstrapped(); err != nil {
		repo.Close()
		logging.Log.Errorf("Failed to bootstrap database: %v", err)
		return nil, err
	}
	if err := repo.ValidateSchema(); err != nil {
		repo.Close()
		logging.Log.Error("---------------------------------------------------------------")
		logging.Log.Errorf("CRITICAL DATABASE ERROR: %v", err)
		logging.Log.Error("---------------------------------------------------------------")
		return nil, err
	}

	interval, err := shared.ParseDuration(conf.Library.RescanInterval)
	if err != nil {
		repo.Close()
		return nil, err
	}

	storage := services.NewStorageService(conf, fs)
	auditor := audit.NewLoggerAuditor(conf.Logging.AuditEnabled)
	thumbnailer := media.NewGenerator(fs, conf.Media)
	reconciler := services.NewReconcileService(repo, storage, thumbnailer, conf)

	return &app{
		Conf:       conf,
		Repo:       repo,
		Storage:    storage,
		Tags:       services.NewTagService(repo, auditor),
		Items:      services.NewItemService(repo, storage, auditor),
		Listing:    services.NewListingService(repo, conf),
		Reconciler: reconciler,
		Rescan:     services.NewRescanService(reconciler, interval),
	}, nil
}

func (a *app) Close() error {
	return a.Repo.Close()
}

// withApp opens the application on the OS filesystem for the duration of fn.
func withApp(options *GlobalOptions, fn func(a *app) error) error {
	a, err := openApp(options.Conf, afero.NewOsFs())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
