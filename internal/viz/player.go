package viz

import (
	"fmt"
	"iter"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/scene"
)

type TickMsg time.Time

// Player replays a finished trajectory one frame per tick. Frames are
// pulled from the scene plan on demand.
type Player struct {
	title  string
	cfg    scene.Config
	tr     dynamo.Trajectory
	dt     float64
	total  int
	canvas *Canvas
	view   Viewport

	next    func() (scene.Frame, bool)
	stop    func()
	frame   scene.Frame
	shown   int
	running bool
	done    bool
}

// NewPlayer expects cfg to have passed Validate.
func NewPlayer(title string, cfg scene.Config, tr dynamo.Trajectory, dt float64) *Player {
	cols, rows := cfg.Columns, cfg.Rows
	if cols <= 0 {
		cols = scene.DefaultColumns
	}
	if rows <= 0 {
		rows = scene.DefaultRows
	}
	canvas := NewCanvas(cols, rows)

	p := &Player{
		title:   title,
		cfg:     cfg,
		tr:      tr,
		dt:      dt,
		total:   cfg.FrameCount(len(tr), dt),
		canvas:  canvas,
		view:    NewViewport(canvas, cfg.Extent),
		running: true,
	}
	p.rewind()
	return p
}

func (p *Player) rewind() {
	if p.stop != nil {
		p.stop()
	}
	p.next, p.stop = iter.Pull(p.cfg.Frames(p.tr, p.dt))
	p.shown = 0
	p.done = false
	p.advance()
}

func (p *Player) advance() {
	f, ok := p.next()
	if !ok {
		p.done = true
		p.running = false
		return
	}
	p.frame = f
	p.shown++
	p.draw()
}

func (p *Player) tick() tea.Cmd {
	fps := p.cfg.FrameRate
	if fps <= 0 {
		fps = scene.DefaultFrameRate
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (p *Player) Init() tea.Cmd {
	return p.tick()
}

func (p *Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			p.stop()
			return p, tea.Quit
		case " ":
			if !p.done {
				p.running = !p.running
			}
		case "r":
			p.rewind()
			p.running = true
		case "right", "l":
			if !p.done {
				p.advance()
			}
		}
	case TickMsg:
		if p.running {
			p.advance()
		}
		return p, p.tick()
	}
	return p, nil
}

func (p *Player) draw() {
	p.canvas.Clear()

	for i := 1; i < len(p.frame.Trail); i++ {
		a, b := p.frame.Trail[i-1], p.frame.Trail[i]
		x0, y0 := p.view.Project(a.X, a.Y)
		x1, y1 := p.view.Project(b.X, b.Y)
		p.canvas.DrawLine(x0, y0, x1, y1)
	}

	s := p.frame.Sample
	ox, oy := p.view.Project(0, 0)
	x1, y1 := p.view.Project(s.X1, s.Y1)
	x2, y2 := p.view.Project(s.X2, s.Y2)

	p.canvas.Set(ox, oy)
	p.canvas.DrawLine(ox, oy, x1, y1)
	p.canvas.DrawLine(x1, y1, x2, y2)
	p.canvas.Dot(x1, y1)
	p.canvas.Dot(x2, y2)
}

func (p *Player) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(p.title)) + "\n")

	switch {
	case p.done:
		s.WriteString(StatusPaused.Render("FINISHED") + "\n\n")
	case p.running:
		s.WriteString(StatusRunning.Render("PLAYING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3fs", p.frame.Time))
	row("Frame", fmt.Sprintf("%d/%d", p.shown, p.total))
	row("Step", fmt.Sprintf("%d", p.frame.Index))
	row("Mass 1", fmt.Sprintf("(%.3f, %.3f)", p.frame.Sample.X1, p.frame.Sample.Y1))
	row("Mass 2", fmt.Sprintf("(%.3f, %.3f)", p.frame.Sample.X2, p.frame.Sample.Y2))
	row("Trail", fmt.Sprintf("%d pts", len(p.frame.Trail)))

	progress := 0.0
	if p.total > 0 {
		progress = float64(p.shown) / float64(p.total)
	}
	s.WriteString("\n" + ProgressBar(progress, 24) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause →:Step R:Restart Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(p.canvas.String()),
		statsStyle.Render(s.String()),
	)
}

// Play runs the player full screen until the user quits.
func Play(p *Player) error {
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}
