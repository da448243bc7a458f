package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/strumboli/strumboli/internal/logger"
	"github.com/strumboli/strumboli/sdk/contracts"
	"github.com/strumboli/strumboli/sdk/notes"
	"github.com/strumboli/strumboli/sdk/strumboli"
)

// A minimal wiring of the core: one tablet interface decoded through a
// layout, stylus contact plays a note, tilt bends pitch.
const layoutDoc = `
reportId: 2
buttonReportId: 6
mappings:
  status:
    type: status
    byteIndex: 1
    values:
      128: {state: hover}
      130: {state: hover, primaryButtonPressed: true}
      129: {state: contact}
  x:
    type: multi-byte-range
    byteIndices: [2, 3]
    max: 32767
  y:
    type: multi-byte-range
    byteIndices: [4, 5]
    max: 32767
  pressure:
    type: multi-byte-range
    byteIndices: [6, 7]
    max: 8191
  tiltX:
    type: bipolar-range
    byteIndex: 8
    positiveMax: 60
    negativeMin: 256
    negativeMax: 196
  buttons:
    type: bit-flags
    byteIndex: 2
    buttonCount: 4
`

func main() {
	log := logger.NewZapLogger()

	layout, err := contracts.ParseLayout([]byte(layoutDoc))
	if err != nil {
		log.Error("Layout rejected", log.Field().Error("error", err))
		return
	}

	devices, err := strumboli.ListDevices()
	if err != nil {
		log.Error("No HID devices found", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available HID devices:", devices)

	device, err := strumboli.OpenDevicePath(devices[0].Path)
	if err != nil {
		log.Error("Failed to open device", log.Field().Error("error", err))
		return
	}
	defer device.Close()

	player, err := strumboli.NewNotePlayer(
		contracts.WithLogger(log),
		contracts.WithStrumChannel(1),
	)
	if err != nil {
		log.Error("Failed to initialize note player", log.Field().Error("error", err))
		return
	}
	defer player.Close()

	reader := strumboli.NewFrameReader(device, layout, contracts.ReportContext{},
		contracts.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		if err := reader.Run(ctx); err != nil {
			log.Error("Device lost", log.Field().Error("error", err))
			stop()
		}
	}()

	pitch, _ := notes.StringToNote("c4")
	touching := false
	for frame := range reader.Frames() {
		switch frame.State {
		case contracts.StateContact:
			if !touching {
				touching = true
				velocity := uint8(100)
				if pressure, ok := frame.Value(contracts.KeyPressure); ok {
					velocity = uint8(1 + pressure*126)
				}
				player.PlayNote(pitch, velocity, 0)
			}
		case contracts.StateHover, contracts.StateNone:
			if touching {
				touching = false
				player.ReleaseNote(pitch)
			}
		}
		if tilt, ok := frame.Value(contracts.KeyTiltX); ok {
			player.SendPitchBend(tilt)
		}
	}
}
