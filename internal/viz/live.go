package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/partsim/internal/event"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/metrics"
)

const (
	tickInterval = time.Second / 20
	rateHistory  = 60
	plotWidth    = 60
	displayW     = 30
	displayH     = 8
)

type TickMsg time.Time

// LiveModel drives an experiment batch by batch and shows its progress.
type LiveModel struct {
	exp     *experiment.Experiment
	batch   int
	running bool
	err     error

	hists   []*metrics.Histogram
	histIdx int
	rates   []float64

	capture *eventCapture
	canvas  *Canvas
}

// eventCapture snapshots the event with index target as it is generated.
type eventCapture struct {
	target int
	snap   EventSnapshot
	ok     bool
}

func (c *eventCapture) OnEvent(ev *event.Event) {
	if ev.Index == c.target {
		c.snap = Snapshot(ev)
		c.ok = true
	}
}

// NewLiveModel steps exp by batch events per tick. It starts on the decay
// invariant mass histogram.
func NewLiveModel(exp *experiment.Experiment, batch int) LiveModel {
	if batch <= 0 {
		batch = 100
	}
	hists := exp.Analysis().Histograms()
	idx := 0
	for i, h := range hists {
		if h.Name == metrics.HistInvMassDecay {
			idx = i
		}
	}
	capture := &eventCapture{target: -1}
	exp.AddObserver(capture)
	return LiveModel{
		exp:     exp,
		batch:   batch,
		running: true,
		hists:   hists,
		histIdx: idx,
		rates:   make([]float64, 0, rateHistory),
		capture: capture,
		canvas:  NewCanvas(displayW, displayH),
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "tab":
			m.histIdx = (m.histIdx + 1) % len(m.hists)
		case "shift+tab":
			m.histIdx = (m.histIdx + len(m.hists) - 1) % len(m.hists)
		}
	case TickMsg:
		if m.running && !m.exp.Done() && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *LiveModel) step() {
	m.capture.target = m.exp.Result().Summary.Events + min(m.batch, m.exp.Remaining()) - 1
	start := time.Now()
	sum, err := m.exp.Step(context.Background(), m.batch)
	if err != nil {
		m.err = err
		return
	}
	if d := time.Since(start).Seconds(); d > 0 {
		m.rates = append(m.rates, float64(sum.Events)/d)
		if len(m.rates) > rateHistory {
			m.rates = m.rates[1:]
		}
	}
}

// Err reports the error that stopped stepping, if any.
func (m LiveModel) Err() error { return m.err }

func (m LiveModel) View() string {
	res := m.exp.Result()
	total := m.exp.Config().Events
	done := float64(res.Summary.Events) / float64(total)

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = StatusError.Render("ERROR: " + m.err.Error())
	case m.exp.Done():
		status = StatusDone.Render("DONE")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}

	var stats strings.Builder
	stats.WriteString(Title.Render("PARTSIM") + "  " + status + "\n\n")
	stats.WriteString(ProgressBar(done, 30) + fmt.Sprintf(" %5.1f%%\n", 100*done))
	stats.WriteString(Subtle.Render(fmt.Sprintf("%s / %s events", FormatCount(res.Summary.Events), FormatCount(total))) + "\n\n")
	stats.WriteString(SummaryTable(res.Summary))
	stats.WriteString(MetricLabel.Render("Elapsed") + MetricValue.Render(res.Elapsed.Round(time.Millisecond).String()) + "\n")
	stats.WriteString("\n" + MetricLabel.Render("Events/s") + Sparkline(m.rates, 30) + "\n")
	if m.capture.ok {
		DrawEvent(m.canvas, m.capture.snap)
		stats.WriteString("\n" + Subtle.Render(fmt.Sprintf("event %d  phi vs theta", m.capture.snap.Index)) + "\n")
		stats.WriteString(m.canvas.String())
	}

	h := m.hists[m.histIdx]
	plot := graphStyle.Render(PlotHistogram(h, PlotOptions{Width: plotWidth, Height: 12}))

	help := KeyHint.Render("SP:Pause  TAB:Next histogram  Q:Quit")
	body := lipgloss.JoinHorizontal(lipgloss.Top, Panel.Render(stats.String()), plot)
	return body + "\n" + Separator(80) + "\n" + help + "\n"
}
