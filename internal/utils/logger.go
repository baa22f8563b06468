package utils

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Log 全局 logger，init 时即可用，Init 按配置重新设置级别
var Log = newLogger(os.Stderr)

func Init(level string) {
	Log = newLogger(os.Stderr)
	if lvl, err := log.ParseLevel(level); err == nil {
		Log.SetLevel(lvl)
	} else {
		Log.Warn("unknown log level, using info", "level", level)
	}
}

// Discard 测试中静默日志
func Discard() {
	Log = newLogger(io.Discard)
}

func newLogger(w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	styles := log.DefaultStyles()
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO🌟").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#90EE9080")).
		Foreground(lipgloss.Color("#006400FF")).Bold(true)

	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR🔥").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#FF0000FF")).
		Foreground(lipgloss.Color("#00FFFF00")).Bold(true)

	styles.Levels[log.FatalLevel] = lipgloss.NewStyle().
		SetString("FATAL⚡️").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#000000FF")).
		Foreground(lipgloss.Color("#00FFFF00")).Bold(true)

	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN🍪").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#FFA500FF")).
		Foreground(lipgloss.Color("#000000FF")).Bold(true)
	l.SetStyles(styles)
	return l
}
