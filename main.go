package main

import (
	"time"

	"github.com/inkwell/sketchblog/config"
	"github.com/inkwell/sketchblog/models"
	"github.com/inkwell/sketchblog/routes"
	"github.com/inkwell/sketchblog/services"
	"github.com/inkwell/sketchblog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.Post{},
		&models.Comment{},
		&models.ViewRecord{},
		&models.Setting{},
		&models.PageView{},
	)

	viewCounter := services.NewViewCounter(db, time.Duration(cfg.ViewDedupHours)*time.Hour)
	r := routes.SetupRouter(db, viewCounter)

	// Background sweep of expired view-dedup records (storage hygiene only)
	utils.StartViewRecordSweeper(viewCounter, time.Hour)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
