// Package console holds the startup display and logger setup shared by the
// ghostnet binaries.
package console

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ghostrun/ghostnet/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const lineWidth = 46

func Banner(name, tagline string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Printf("\033[36;1m  │\033[0m %s\033[36;1m│\033[0m\n", center(name, 42))
	fmt.Printf("\033[36;1m  │\033[0m %s\033[36;1m│\033[0m\n", center(tagline, 42))
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func Section(title string) {
	lineLen := lineWidth - utf8.RuneCountInString(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

// Stat prints a dotted "label ···· value" line.
func Stat(label string, value any) {
	valStr := fmt.Sprint(value)
	dotsLen := 42 - utf8.RuneCountInString(label) - len(valStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), valStr)
}

func OK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func Ready(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// NewLogger builds a console logger for people or a JSON logger for
// collectors. An unknown level falls back to info.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
