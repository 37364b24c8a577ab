// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"strconv"

	"blueprint-measure/internal/measure"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// CalibrateDialog asks for the real-world length of the segment the user
// just picked on the page. Submitting invalid input reopens the dialog
// so the picked segment is not lost.
//
// The segment checkbox routes the pick into the multi-segment fit
// instead of applying it directly: the pick is stored as one reference
// segment, the calibrate tool stays armed for the next pick, and the fit
// is applied later from the Tools menu.
type CalibrateDialog struct {
	window        fyne.Window
	pixelDistance float64
	defaultUnit   measure.LengthUnit
	segmentCount  int

	distanceEntry *widget.Entry
	unitSelect    *widget.Select
	segmentCheck  *widget.Check

	// onSubmit applies the calibration. A non-nil error means the input
	// was rejected and the dialog should be shown again.
	onSubmit func(realDistance float64, unit measure.LengthUnit) error
	// onAddSegment stores the pick as a reference segment for a later fit.
	onAddSegment func(realDistance float64, unit measure.LengthUnit) error
	onCancel     func()
}

// NewCalibrateDialog creates a calibration input dialog for a picked
// segment of the given on-page pixel length. segmentCount is the number
// of reference segments already collected for a fit.
func NewCalibrateDialog(window fyne.Window, pixelDistance float64, defaultUnit measure.LengthUnit, segmentCount int,
	onSubmit func(realDistance float64, unit measure.LengthUnit) error,
	onAddSegment func(realDistance float64, unit measure.LengthUnit) error,
	onCancel func()) *CalibrateDialog {
	return &CalibrateDialog{
		window:        window,
		pixelDistance: pixelDistance,
		defaultUnit:   defaultUnit,
		segmentCount:  segmentCount,
		onSubmit:      onSubmit,
		onAddSegment:  onAddSegment,
		onCancel:      onCancel,
	}
}

// Show displays the dialog.
func (d *CalibrateDialog) Show() {
	d.distanceEntry = widget.NewEntry()
	d.distanceEntry.SetPlaceHolder("e.g. 2.5")

	units := make([]string, len(measure.Units))
	for i, u := range measure.Units {
		units[i] = string(u)
	}
	d.unitSelect = widget.NewSelect(units, nil)
	d.unitSelect.SetSelected(string(d.defaultUnit))

	checkLabel := "Add as reference segment"
	if d.segmentCount > 0 {
		checkLabel = fmt.Sprintf("Add as reference segment (%d collected)", d.segmentCount)
	}
	d.segmentCheck = widget.NewCheck(checkLabel, nil)
	d.segmentCheck.Checked = d.segmentCount > 0

	form := widget.NewForm(
		widget.NewFormItem("Picked length", widget.NewLabel(fmt.Sprintf("%.1f px", d.pixelDistance))),
		widget.NewFormItem("Real length", d.distanceEntry),
		widget.NewFormItem("Unit", d.unitSelect),
		widget.NewFormItem("", d.segmentCheck),
	)

	dlg := dialog.NewCustomConfirm(
		"Calibrate Scale",
		"Apply",
		"Cancel",
		form,
		func(apply bool) {
			if !apply {
				if d.onCancel != nil {
					d.onCancel()
				}
				return
			}
			d.apply()
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(380, 260))
	dlg.Show()
	d.window.Canvas().Focus(d.distanceEntry)
}

func (d *CalibrateDialog) apply() {
	value, err := strconv.ParseFloat(d.distanceEntry.Text, 64)
	if err != nil {
		d.retry(fmt.Errorf("not a number: %q", d.distanceEntry.Text))
		return
	}

	unit := measure.LengthUnit(d.unitSelect.Selected)

	if d.segmentCheck.Checked {
		if err := d.onAddSegment(value, unit); err != nil {
			d.retry(err)
		}
		return
	}

	if err := d.onSubmit(value, unit); err != nil {
		d.retry(err)
		return
	}
}

// retry reports the problem and reopens the dialog with the entry text
// preserved.
func (d *CalibrateDialog) retry(err error) {
	entered := d.distanceEntry.Text
	selected := d.unitSelect.Selected
	asSegment := d.segmentCheck.Checked

	errDlg := dialog.NewError(err, d.window)
	errDlg.SetOnClosed(func() {
		d.Show()
		d.distanceEntry.SetText(entered)
		d.unitSelect.SetSelected(selected)
		d.segmentCheck.SetChecked(asSegment)
	})
	errDlg.Show()
}
