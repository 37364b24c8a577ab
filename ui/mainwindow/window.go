// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"
	"strconv"

	"blueprint-measure/internal/app"
	"blueprint-measure/internal/document"
	"blueprint-measure/internal/measure"
	"blueprint-measure/internal/raster"
	"blueprint-measure/internal/tool"
	"blueprint-measure/internal/version"
	"blueprint-measure/internal/viewport"
	"blueprint-measure/pkg/geometry"
	"blueprint-measure/ui/canvas"
	"blueprint-measure/ui/dialogs"
	"blueprint-measure/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const projectExt = ".bmproj"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	vp      *viewport.Viewport
	machine *tool.Machine
	loader  *document.Loader

	canvas      *canvas.MeasureCanvas
	measureList *widget.List
	statusBar   *widget.Label
	pageLabel   *widget.Label

	// ID of the measurement selected in the list, "" for none
	selectedID string

	// Unit of the reference segments collected for a scale fit
	segmentUnit measure.LengthUnit
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, preferences *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Blueprint Measure")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  preferences,
	}

	mw.vp = viewport.New(1024, 768)
	mw.machine = tool.NewMachine(mw.vp, state.Calibration)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupMachine()

	win.Resize(fyne.NewSize(1280, 860))
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMeasureCanvas(mw.vp, mw.machine)
	mw.canvas.OnChanged(mw.refreshView)

	mw.measureList = widget.NewList(
		func() int {
			return len(mw.state.Measurements())
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("measurement")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			items := mw.state.Measurements()
			if id >= len(items) {
				return
			}
			m := items[id]
			name := m.Name
			if name == "" {
				name = string(m.Kind)
			}
			obj.(*widget.Label).SetText(fmt.Sprintf("%s: %s", name, m.Label(mw.state.Calibration.IsCalibrated())))
		},
	)
	mw.measureList.OnSelected = func(id widget.ListItemID) {
		items := mw.state.Measurements()
		if id < len(items) {
			mw.selectedID = items[id].ID
		}
	}
	mw.measureList.OnUnselected = func(id widget.ListItemID) {
		mw.selectedID = ""
	}

	renameBtn := widget.NewButton("Rename", mw.onRenameSelected)
	removeBtn := widget.NewButton("Remove", mw.onRemoveSelected)

	sidePanel := container.NewBorder(
		widget.NewLabel("Measurements"),               // top
		container.NewGridWithColumns(2, renameBtn, removeBtn), // bottom
		nil, nil,
		mw.measureList,
	)

	mw.statusBar = widget.NewLabel("Ready")
	mw.pageLabel = widget.NewLabel("")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar, // top
		nil, nil, nil,
		mw.canvas,
	)

	split := container.NewHSplit(sidePanel, canvasArea)
	split.SetOffset(0.22)

	statusRow := container.NewBorder(nil, nil, nil, mw.pageLabel, mw.statusBar)

	content := container.NewBorder(
		nil,                          // top
		container.NewPadded(statusRow), // bottom
		nil, nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with tool, zoom and page controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	toolBtn := func(t tool.Tool, label string) *widget.Button {
		return widget.NewButton(label, func() {
			mw.machine.SetTool(t)
			mw.refreshView()
		})
	}

	zoomOutBtn := widget.NewButton("-", func() {
		mw.vp.ZoomOut()
		mw.refreshView()
	})
	zoomInBtn := widget.NewButton("+", func() {
		mw.vp.ZoomIn()
		mw.refreshView()
	})
	rotateBtn := widget.NewButton("Rotate", func() {
		mw.vp.Rotate()
		mw.refreshView()
	})
	resetBtn := widget.NewButton("Reset", func() {
		mw.vp.Reset()
		mw.refreshView()
	})

	prevBtn := widget.NewButton("<", func() { mw.changePage(-1) })
	nextBtn := widget.NewButton(">", func() { mw.changePage(1) })

	return container.NewHBox(
		toolBtn(tool.ToolPan, "Pan"),
		toolBtn(tool.ToolDistance, "Distance"),
		toolBtn(tool.ToolArea, "Area"),
		toolBtn(tool.ToolAngle, "Angle"),
		toolBtn(tool.ToolCalibrate, "Calibrate"),
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		rotateBtn,
		resetBtn,
		widget.NewSeparator(),
		widget.NewLabel("Page:"),
		prevBtn,
		nextBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Add Page...", mw.onAddPage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.vp.ZoomIn(); mw.refreshView() }),
		fyne.NewMenuItem("Zoom Out", func() { mw.vp.ZoomOut(); mw.refreshView() }),
		fyne.NewMenuItem("Rotate 90", func() { mw.vp.Rotate(); mw.refreshView() }),
		fyne.NewMenuItem("Reset View", func() { mw.vp.Reset(); mw.refreshView() }),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Pan", func() { mw.machine.SetTool(tool.ToolPan); mw.refreshView() }),
		fyne.NewMenuItem("Measure Distance", func() { mw.machine.SetTool(tool.ToolDistance); mw.refreshView() }),
		fyne.NewMenuItem("Measure Area", func() { mw.machine.SetTool(tool.ToolArea); mw.refreshView() }),
		fyne.NewMenuItem("Measure Angle", func() { mw.machine.SetTool(tool.ToolAngle); mw.refreshView() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Calibrate Scale...", func() { mw.machine.SetTool(tool.ToolCalibrate); mw.refreshView() }),
		fyne.NewMenuItem("Apply Segment Fit", mw.onApplySegmentFit),
		fyne.NewMenuItem("Clear Calibration", mw.onClearCalibration),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Deskew Page...", mw.onDeskewPage),
		fyne.NewMenuItem("Rotate Page 90", func() { mw.onRotatePage(90) }),
		fyne.NewMenuItem("Rotate Page 180", func() { mw.onRotatePage(180) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, toolsMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Blueprint Measure - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
		}
		mw.openDocument()
	})

	mw.state.On(app.EventCalibrationChanged, func(data interface{}) {
		mw.refreshView()
	})

	mw.state.On(app.EventMeasurementsRecomputed, func(data interface{}) {
		mw.measureList.Refresh()
		mw.refreshView()
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// setupMachine wires state machine callbacks to the application state.
func (mw *MainWindow) setupMachine() {
	mw.machine.OnMeasurement(func(m measure.Measurement) {
		mw.state.AddMeasurement(m)
		mw.measureList.Refresh()
		mw.refreshView()
	})

	mw.machine.OnCalibrationRequest(func(p1, p2 geometry.Point2D) {
		pixelDistance := p1.Distance(p2)
		dlg := dialogs.NewCalibrateDialog(mw.Window, pixelDistance, mw.prefs.DefaultUnit(), mw.machine.SegmentCount(),
			func(realDistance float64, unit measure.LengthUnit) error {
				rec, err := mw.machine.FinishCalibration(realDistance, unit)
				if err != nil {
					return err
				}
				if err := mw.state.ApplyCalibration(rec); err != nil {
					return err
				}
				mw.prefs.SetDefaultUnit(unit)
				mw.refreshView()
				return nil
			},
			func(realDistance float64, unit measure.LengthUnit) error {
				if err := mw.machine.AddCalibrationSegment(realDistance); err != nil {
					return err
				}
				mw.segmentUnit = unit
				mw.updateStatus(fmt.Sprintf("%d reference segment(s) collected; pick another or apply the fit from Tools", mw.machine.SegmentCount()))
				return nil
			},
			func() {
				mw.machine.Cancel()
				mw.machine.SetTool(tool.ToolPan)
				mw.refreshView()
			})
		dlg.Show()
	})
}

// refreshView rebuilds the overlay and status bar from current state.
func (mw *MainWindow) refreshView() {
	overlay := canvas.Overlay{
		Measurements: mw.state.Measurements(),
		InProgress:   mw.machine.InProgress(),
		Tool:         mw.machine.Tool(),
		Calibrated:   mw.state.Calibration.IsCalibrated(),
	}
	if cursor, ok := mw.machine.Cursor(); ok {
		overlay.Cursor = &cursor
	}
	mw.canvas.SetOverlay(overlay)

	mw.updateStatus(mw.statusText())
	if mw.loader != nil {
		mw.pageLabel.SetText(fmt.Sprintf("Page %d/%d", mw.loader.Page()+1, mw.loader.PageCount()))
	} else {
		mw.pageLabel.SetText("No document")
	}
}

func (mw *MainWindow) statusText() string {
	scalePart := fmt.Sprintf("%.0f%%", mw.vp.Scale()*100)

	calibPart := "uncalibrated (~)"
	if rec, ok := mw.state.Calibration.Record(); ok {
		calibPart = fmt.Sprintf("1 px = %.4g %s", rec.Ratio(), rec.Unit)
	}

	return fmt.Sprintf("%s | zoom %s | %s", mw.machine.Tool(), scalePart, calibPart)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// openDocument builds a rasterizer and loader from the state's page list
// and requests the active page.
func (mw *MainWindow) openDocument() {
	if len(mw.state.PagePaths) == 0 {
		mw.loader = nil
		mw.refreshView()
		return
	}

	doc, err := raster.Open(mw.state.PagePaths)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	mw.loader = document.NewLoader(doc)
	// Runs on the render goroutine; SetFrame is the only safe call here.
	mw.loader.OnFrame(func(frame document.Frame) {
		mw.canvas.SetFrame(frame.Image, frame.Scale)
	})
	mw.requestPage(mw.state.Page)
}

func (mw *MainWindow) requestPage(page int) {
	if mw.loader == nil {
		return
	}
	if err := mw.loader.RequestPage(page, 1.0); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.state.SetPage(page)
	mw.refreshView()
}

func (mw *MainWindow) changePage(delta int) {
	if mw.loader == nil {
		return
	}
	page := mw.loader.Page() + delta
	if page < 0 || page >= mw.loader.PageCount() {
		return
	}
	mw.requestPage(page)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastOpenDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastOpenDir, filepath.Dir(filePath))
}

// Menu action handlers

func (mw *MainWindow) onNewProject() {
	mw.state.ProjectPath = ""
	mw.state.PagePaths = nil
	mw.state.Page = 0
	mw.state.Calibration.Clear()
	for _, m := range mw.state.Measurements() {
		mw.state.RemoveMeasurement(m.ID)
	}
	mw.loader = nil
	mw.machine.Cancel()
	mw.machine.SetTool(tool.ToolPan)
	mw.vp.Reset()
	mw.state.SetModified(false)
	mw.SetTitle("Blueprint Measure - New Project")
	mw.measureList.Refresh()
	mw.refreshView()
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.measureList.Refresh()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{projectExt}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAddPage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		if !raster.IsSupportedFormat(path) {
			dialog.ShowError(fmt.Errorf("unsupported page format: %s", filepath.Ext(path)), mw.Window)
			return
		}

		mw.state.PagePaths = append(mw.state.PagePaths, path)
		mw.state.SetModified(true)
		mw.openDocument()
	}, mw.Window)

	exts := raster.SupportedFormats()
	fd.SetFilter(storage.NewExtensionFileFilter(exts))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != projectExt {
			path += projectExt
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.SetTitle("Blueprint Measure - " + filepath.Base(path))
	}, mw.Window)
	fd.SetFileName("blueprint" + projectExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onRenameSelected() {
	if mw.selectedID == "" {
		return
	}
	var selected *measure.Measurement
	for _, m := range mw.state.Measurements() {
		if m.ID == mw.selectedID {
			m := m
			selected = &m
			break
		}
	}
	if selected == nil {
		return
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetText(selected.Name)

	form := widget.NewForm(widget.NewFormItem("Name", nameEntry))
	dlg := dialog.NewCustomConfirm("Rename Measurement", "Save", "Cancel", form, func(save bool) {
		if !save {
			return
		}
		selected.Name = nameEntry.Text
		if mw.state.ReplaceMeasurement(*selected) {
			mw.measureList.Refresh()
		}
	}, mw.Window)
	dlg.Resize(fyne.NewSize(320, 140))
	dlg.Show()
}

func (mw *MainWindow) onRemoveSelected() {
	if mw.selectedID == "" {
		return
	}
	if mw.state.RemoveMeasurement(mw.selectedID) {
		mw.selectedID = ""
		mw.measureList.UnselectAll()
		mw.measureList.Refresh()
		mw.refreshView()
	}
}

// onDeskewPage asks for a tilt angle and levels the displayed page.
// The correction applies to the displayed frame only; the source file
// stays untouched.
func (mw *MainWindow) onDeskewPage() {
	if mw.loader == nil {
		return
	}
	frame, ok := mw.loader.CurrentFrame()
	if !ok {
		return
	}

	angleEntry := widget.NewEntry()
	angleEntry.SetPlaceHolder("degrees, positive = counter-clockwise")

	form := widget.NewForm(widget.NewFormItem("Angle", angleEntry))
	dlg := dialog.NewCustomConfirm("Deskew Page", "Apply", "Cancel", form, func(apply bool) {
		if !apply {
			return
		}
		angle, err := strconv.ParseFloat(angleEntry.Text, 64)
		if err != nil {
			dialog.ShowError(fmt.Errorf("not a number: %q", angleEntry.Text), mw.Window)
			return
		}
		img, err := raster.Deskew(frame.Image, angle)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.canvas.SetFrame(img, frame.Scale)
	}, mw.Window)
	dlg.Resize(fyne.NewSize(340, 160))
	dlg.Show()
}

func (mw *MainWindow) onRotatePage(degrees int) {
	if mw.loader == nil {
		return
	}
	frame, ok := mw.loader.CurrentFrame()
	if !ok {
		return
	}
	img, err := raster.RotateQuarter(frame.Image, degrees)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.canvas.SetFrame(img, frame.Scale)
}

// onApplySegmentFit installs the least-squares calibration fitted from
// the collected reference segments.
func (mw *MainWindow) onApplySegmentFit() {
	if mw.machine.SegmentCount() == 0 {
		dialog.ShowInformation("Apply Segment Fit",
			"No reference segments collected. Use the calibrate tool and check \"Add as reference segment\" to collect them.",
			mw.Window)
		return
	}

	rec, err := mw.machine.FinishCalibrationFit(mw.segmentUnit)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if err := mw.state.ApplyCalibration(rec); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.SetDefaultUnit(mw.segmentUnit)
	mw.refreshView()
}

func (mw *MainWindow) onClearCalibration() {
	mw.state.Calibration.Clear()
	mw.state.SetModified(true)
	mw.measureList.Refresh()
	mw.refreshView()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Blueprint Measure",
		fmt.Sprintf("Blueprint Measure %s\n\n"+
			"Measure distances, areas and angles on scanned blueprints.",
			version.String()),
		mw.Window)
}
