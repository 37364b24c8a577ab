// Package main provides the entry point for the Blueprint Measure application.
package main

import (
	"log"
	"os"

	"blueprint-measure/internal/app"
	"blueprint-measure/internal/version"
	"blueprint-measure/ui/mainwindow"
	"blueprint-measure/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appTitle = "Blueprint Measure"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s %s", appTitle, version.String())

	fyneApp := fyneapp.NewWithID("blueprint-measure")
	fyneApp.Settings().SetTheme(&app.BlueprintTheme{})

	appState := app.NewState()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, appState, appPrefs)

	// Handle command line arguments
	if len(os.Args) > 1 {
		projectPath := os.Args[1]
		if err := appState.LoadProject(projectPath); err != nil {
			log.Printf("Failed to load project %s: %v", projectPath, err)
		}
	}

	win.Show()
	fyneApp.Run()

	if err := appPrefs.Save(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}
}
