package main

import (
	"fmt"
	"os"

	"github.com/docupine/docupine-backend/internal/app"
	"github.com/docupine/docupine-backend/internal/utils"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	port := utils.GetEnv("PORT", "8080", a.Log)
	if err := a.Run(":" + port); err != nil {
		a.Log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
