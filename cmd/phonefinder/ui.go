package main

import (
	"fmt"
	"io"
	"strings"

	"phonefinder/internal/model"

	"github.com/fatih/color"
)

// ui prints results and messages to a terminal
type ui struct {
	out io.Writer
}

func newUI(out io.Writer) *ui {
	return &ui{out: out}
}

func (u *ui) Info(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(u.out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(u.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Warning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(u.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(u.out, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Bot prints an assistant line in the chat
func (u *ui) Bot(text string) {
	color.New(color.FgMagenta, color.Bold).Fprint(u.out, "advisor> ")
	fmt.Fprintln(u.out, text)
}

// Results prints one card per phone
func (u *ui) Results(results []model.PhoneResult, total int) {
	if len(results) == 0 {
		u.Warning("No phones matched")
		return
	}
	for i, r := range results {
		color.New(color.FgCyan, color.Bold).Fprintf(u.out, "%2d. %s", i+1, r.Name())
		fmt.Fprintf(u.out, "  ₹%d\n", r.PriceRs)
		fmt.Fprintf(u.out, "    %gGB RAM · %gGB storage · %d mAh · %gMP · %g\"\n",
			r.RAMGB, r.StorageGB, r.BatteryMAh, r.BackCameraMP, r.ScreenSizeInches)
		if r.Processor != nil {
			fmt.Fprintf(u.out, "    %s\n", *r.Processor)
		}
		if len(r.MatchedReasons) > 0 {
			color.New(color.Faint).Fprintf(u.out, "    %s\n", strings.Join(r.MatchedReasons, ", "))
		}
	}
	if total > len(results) {
		u.Info("Showing %d of %d matches", len(results), total)
	}
}
