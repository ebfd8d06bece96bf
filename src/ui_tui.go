package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type phase int

const (
	phaseCounting phase = iota
	phaseOrganizing
	phaseDone
)

// maxRecentEvents is how many completed files the TUI keeps on screen
const maxRecentEvents = 6

type model struct {
	config       *Config
	organizer    *Organizer
	ctx          context.Context
	cancel       context.CancelFunc
	currentPhase phase
	spinner      spinner.Model
	progress     progress.Model

	// Progress tracking
	prog         Progress
	progressChan chan Progress
	recent       []string
	statusMsg    string

	// Result
	report   *Report
	quitting bool

	// UI state
	width  int
	height int

	err error
}

type countCompleteMsg struct {
	total int
}

type organizeCompleteMsg struct {
	report *Report
	err    error
}

type progressMsg Progress

func initialModel(ctx context.Context, config *Config, organizer *Organizer) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	// Updated when WindowSizeMsg arrives
	p.Width = 60

	ctx, cancel := context.WithCancel(ctx)

	return model{
		config:       config,
		organizer:    organizer,
		ctx:          ctx,
		cancel:       cancel,
		currentPhase: phaseCounting,
		spinner:      s,
		progress:     p,
		statusMsg:    "Counting files...",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		countFiles(m.organizer, m.config),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Room for the left margin and the " 100% (9999/9999 files)" suffix
		progressWidth := msg.Width - 35
		if progressWidth < 20 {
			progressWidth = 20
		}
		m.progress.Width = progressWidth
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			if m.currentPhase == phaseOrganizing {
				// Wait for the organizer to stop at the next file boundary
				m.quitting = true
				m.statusMsg = "Stopping after the current file..."
				return m, nil
			}
			return m, tea.Quit

		case "enter":
			if m.currentPhase == phaseDone {
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		prev := m.prog.LastEvent
		m.prog = Progress(msg)
		if m.prog.LastEvent != "" && m.prog.LastEvent != prev {
			m.recent = append(m.recent, m.prog.LastEvent)
			if len(m.recent) > maxRecentEvents {
				m.recent = m.recent[len(m.recent)-maxRecentEvents:]
			}
		}
		return m, waitForProgress(m.progressChan)

	case countCompleteMsg:
		m.currentPhase = phaseOrganizing
		m.statusMsg = fmt.Sprintf("Organizing %d files...", msg.total)
		if m.config.DryRun {
			m.statusMsg = fmt.Sprintf("Planning %d files (dry run)...", msg.total)
		}
		m.prog.Total = msg.total

		m.progressChan = make(chan Progress, 100)
		m.organizer.SetProgress(m.progressChan, msg.total)
		return m, tea.Batch(
			runOrganizer(m.ctx, m.organizer, m.progressChan),
			waitForProgress(m.progressChan),
		)

	case organizeCompleteMsg:
		m.currentPhase = phaseDone
		m.report = msg.report
		m.err = msg.err
		if m.report != nil {
			moved, removed, skipped := m.report.Counts()
			m.statusMsg = fmt.Sprintf("Complete! %d moved, %d duplicates removed, %d not moved", moved, removed, skipped)
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.err != nil && m.report == nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit", m.err)
	}

	var b strings.Builder

	b.WriteString("\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	b.WriteString(titleStyle.Render("Tidy Media"))
	b.WriteString("\n\n")

	configStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginLeft(2)
	modeStr := map[bool]string{true: "DRY RUN", false: "EXECUTE"}[m.config.DryRun]
	b.WriteString(configStyle.Render(fmt.Sprintf(
		"%s → %s | %s",
		truncatePath(m.config.SourcePath, 30),
		truncatePath(m.config.DestPath, 30),
		modeStr,
	)))
	b.WriteString("\n\n")

	// Phase indicator
	b.WriteString("  ")
	phases := []string{"Counting", "Organizing", "Done"}
	for i, name := range phases {
		if i > 0 {
			b.WriteString(" → ")
		}
		if int(m.currentPhase) == i {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render(name))
		} else if int(m.currentPhase) > i {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("✓"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(name))
		}
	}
	b.WriteString("\n\n")

	switch m.currentPhase {
	case phaseCounting, phaseOrganizing:
		b.WriteString(fmt.Sprintf("  %s %s\n\n", m.spinner.View(), m.statusMsg))

		if m.prog.Total > 0 {
			percent := float64(m.prog.Processed) / float64(m.prog.Total)
			if percent > 1 {
				percent = 1
			}
			b.WriteString("  ")
			b.WriteString(m.progress.ViewAs(percent))
			b.WriteString(fmt.Sprintf(" %d%% (%d/%d files)\n\n",
				int(percent*100), m.prog.Processed, m.prog.Total))
		}

		if m.prog.Processed > 0 {
			b.WriteString(fmt.Sprintf("  Moved: %d • Duplicates removed: %d • Not moved: %d\n",
				m.prog.Moved, m.prog.Removed, m.prog.Skipped))
		}

		if len(m.recent) > 0 {
			maxLen := m.width - 6
			if maxLen < 40 {
				maxLen = 40
			}
			eventStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				MarginLeft(2)
			b.WriteString("\n")
			for _, event := range m.recent {
				b.WriteString(eventStyle.Render(truncatePath(event, maxLen)))
				b.WriteString("\n")
			}
		}

	case phaseDone:
		b.WriteString(m.renderSummary())
	}

	b.WriteString("\n\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginLeft(2)
	if m.currentPhase == phaseDone {
		b.WriteString(helpStyle.Render("enter: quit and print report • q: quit"))
	} else {
		b.WriteString(helpStyle.Render("q: stop"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m model) renderSummary() string {
	var b strings.Builder

	doneStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true).
		MarginLeft(2)
	b.WriteString(doneStyle.Render("✓ " + m.statusMsg))
	b.WriteString("\n\n")

	if m.report == nil {
		return b.String()
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		MarginLeft(2)

	moved, removed, skipped := m.report.Counts()
	summary := fmt.Sprintf(
		"Moved: %d (%s) • Duplicates removed: %d • Not moved: %d\nEmpty directories cleaned: %d",
		moved,
		humanize.Bytes(uint64(m.report.MovedBytes())),
		removed,
		skipped,
		len(m.report.DirsRemoved),
	)
	if m.err != nil {
		summary += fmt.Sprintf("\nStopped early: %v", m.err)
	}
	b.WriteString(boxStyle.Render(summary))
	return b.String()
}

// Commands
func countFiles(organizer *Organizer, config *Config) tea.Cmd {
	return func() tea.Msg {
		walker := NewWalker(organizer.fs, config.DestPath)
		return countCompleteMsg{total: walker.CountEntries(config.SourcePath)}
	}
}

func runOrganizer(ctx context.Context, organizer *Organizer, progressChan chan Progress) tea.Cmd {
	return func() tea.Msg {
		report, err := organizer.Run(ctx)
		close(progressChan)
		return organizeCompleteMsg{report: report, err: err}
	}
}

// waitForProgress polls the progress channel and sends updates
func waitForProgress(progressChan <-chan Progress) tea.Cmd {
	return func() tea.Msg {
		prog, ok := <-progressChan
		if !ok {
			// Channel closed, processing done
			return nil
		}
		return progressMsg(prog)
	}
}

// truncatePath shortens a file path for display
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	if maxLen > 10 {
		return "..." + path[len(path)-maxLen+3:]
	}

	return path[:maxLen]
}
