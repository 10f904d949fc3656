package main

import (
	"log/slog"
	"os"

	"github.com/DRSN-tech/category-tree/internal/app"
	config "github.com/DRSN-tech/category-tree/internal/cfg"
	"github.com/DRSN-tech/category-tree/pkg/logger"
)

//	@title			Category Tree API
//	@version		1.0
//	@description	Иерархический справочник категорий: дерево, поиск с цепочкой предков, защищённые мутации.
//	@BasePath		/api/v1
func main() {
	// Логгер до загрузки конфига: уровень и бэкенд ещё неизвестны
	bootLog := logger.NewSlogLogger(slog.LevelInfo)

	cfg, err := config.Load(bootLog)
	if err != nil {
		bootLog.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Backend, cfg.Log.Level)
	if err != nil {
		bootLog.Errorf(err, "failed to initialize logger")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
