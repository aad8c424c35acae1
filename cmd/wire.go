package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/SeJohnEff/simprov/internal/adapters/backup"
	cardrender "github.com/SeJohnEff/simprov/internal/adapters/render/card"
	csvrepo "github.com/SeJohnEff/simprov/internal/adapters/repo/csv"
	"github.com/SeJohnEff/simprov/internal/adapters/tool"
	"github.com/SeJohnEff/simprov/internal/application"
	"github.com/SeJohnEff/simprov/internal/domain"
	"github.com/SeJohnEff/simprov/internal/ports"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".simprov"

	toolPathKey    = "tool.path"
	toolTimeoutKey = "tool.timeout"
	backupsDirKey  = "backups.dir"
)

type app struct {
	batchService    *application.BatchService
	backups         ports.BackupStore
	newSession      func() *application.CardSession
	statusRenderer  func(application.CardStatus) (string, error)
	defectsRenderer func([]domain.Defect) (string, error)
	reportRenderer  func(application.RunReport) (string, error)
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg := viper.New()
	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(toolPathKey, "")
	cfg.SetDefault(toolTimeoutKey, int(tool.DefaultTimeout/time.Second))
	cfg.SetDefault(backupsDirKey, filepath.Join(homeDir, configDir, "backups"))
	_ = cfg.BindEnv(toolPathKey, tool.EnvToolPath)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// An unresolvable tool root is not fatal: batch editing and backups
	// work offline, and card commands report how to configure the path.
	toolRoot := tool.ResolveRoot(cfg.GetString(toolPathKey))
	invoker := tool.NewInvoker(toolRoot,
		tool.WithTimeout(time.Duration(cfg.GetInt(toolTimeoutKey))*time.Second))

	repo := csvrepo.NewRepository()
	backups := backup.NewStore(cfg.GetString(backupsDirKey), ports.SystemClock{})

	return &app{
		batchService:    application.NewBatchService(repo, backups),
		backups:         backups,
		newSession:      func() *application.CardSession { return application.NewCardSession(invoker) },
		statusRenderer:  cardrender.RenderStatus,
		defectsRenderer: cardrender.RenderDefects,
		reportRenderer:  cardrender.RenderReport,
	}, nil
}
