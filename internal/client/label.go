package client

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const noHighscoreText = "No highscore yet!"

// Label is the text display for the highscore.
type Label struct {
	mu      sync.Mutex
	text    string
	printer *message.Printer
	log     *zap.Logger
}

func NewLabel(log *zap.Logger) *Label {
	return &Label{
		text:    noHighscoreText,
		printer: message.NewPrinter(language.English),
		log:     log,
	}
}

func (l *Label) ShowHighscore(seconds uint64) {
	if seconds == 0 {
		return
	}
	text := l.printer.Sprintf("Highscore: %d", seconds)

	l.mu.Lock()
	changed := text != l.text
	l.text = text
	l.mu.Unlock()

	if changed {
		l.log.Info(text)
	}
}

func (l *Label) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}
