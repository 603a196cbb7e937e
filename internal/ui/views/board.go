package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/board"
	"github.com/tgienger/toman/internal/db"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/ui/keys"
	"github.com/tgienger/toman/internal/ui/styles"
)

var columnTitles = map[models.Status]string{
	models.StatusToDo:       "To Do",
	models.StatusInProgress: "In Progress",
	models.StatusReview:     "Review",
	models.StatusDone:       "Done",
}

type boardLoadedMsg struct {
	ticket ticket
	view   models.ProjectView
	err    error
}

type taskMovedMsg struct {
	ticket ticket
	task   models.Task
	err    error
}

type taskAssignedMsg struct {
	ticket ticket
	task   models.Task
	err    error
}

// BoardView is the kanban board of one project
type BoardView struct {
	env         Env
	tickets     tickets
	workspaceID string
	project     models.Project
	board       *board.Board
	members     int
	styles      *styles.Styles
	keys        keys.KeyMap
	help        help.Model

	width  int
	height int

	loaded bool
	err    error

	col     int
	rows    []int
	grabbed string // id of the task being moved, empty when none

	searching bool
	search    textinput.Model

	busy      bool
	status    string
	statusErr bool

	showHelpPopup bool
}

// NewBoardView creates the board for project
func NewBoardView(env Env, workspaceID string, project models.Project) *BoardView {
	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	return &BoardView{
		env:         env,
		tickets:     newTickets(),
		workspaceID: workspaceID,
		project:     project,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		help:        help.New(),
		rows:        make([]int, len(models.Statuses)),
		search:      search,
	}
}

// Project returns the project on the board
func (v *BoardView) Project() models.Project {
	return v.project
}

func (v *BoardView) Init() tea.Cmd {
	return v.load()
}

func (v *BoardView) load() tea.Cmd {
	k, env, id := v.tickets.nextLoad(), v.env, v.project.ID
	return func() tea.Msg {
		ctx, cancel := env.ctx()
		defer cancel()
		view, err := env.Loader.LoadProjectView(ctx, id)
		return boardLoadedMsg{ticket: k, view: view, err: err}
	}
}

func (v *BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.help.Width = styles.ContentWidth(msg.Width)
		return v, nil

	case boardLoadedMsg:
		if !v.tickets.currentLoad(msg.ticket) {
			return v, nil
		}
		v.loaded = true
		v.err = msg.err
		if msg.err != nil {
			return v, nil
		}
		v.project = msg.view.Project
		v.members = len(msg.view.Members)
		v.board = board.FromView(msg.view, v.env.actor(), v.env.Board)
		if v.env.setting(db.KeyBoardSort) == board.SortPriority.String() {
			v.board.SetSort(board.SortPriority)
		}
		v.board.SetQuery(v.search.Value())
		v.grabbed = ""
		v.clampRows()
		return v, nil

	case taskMovedMsg:
		if !v.tickets.owns(msg.ticket) {
			return v, nil
		}
		v.busy = false
		if msg.err != nil {
			v.setError(msg.err)
			return v, nil
		}
		v.focusTask(msg.task)
		v.setStatus(fmt.Sprintf("Moved %q to %s", msg.task.Name, columnTitles[msg.task.Status]))
		return v, nil

	case taskAssignedMsg:
		if !v.tickets.owns(msg.ticket) {
			return v, nil
		}
		v.busy = false
		if msg.err != nil {
			v.setError(msg.err)
			return v, nil
		}
		v.setStatus(fmt.Sprintf("You took %q", msg.task.Name))
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.searching {
			return v.updateSearch(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *BoardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	case key.Matches(msg, v.keys.Back):
		if v.grabbed != "" {
			v.grabbed = ""
			v.setStatus("")
			return v, nil
		}
		return v, func() tea.Msg { return BackToProjects{} }
	case key.Matches(msg, v.keys.Refresh):
		v.loaded = false
		return v, v.load()
	}

	if v.board == nil || v.busy {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Left):
		if v.col > 0 {
			v.col--
		}
	case key.Matches(msg, v.keys.Right):
		if v.col < len(models.Statuses)-1 {
			v.col++
		}
	case key.Matches(msg, v.keys.Up):
		if v.grabbed == "" && v.rows[v.col] > 0 {
			v.rows[v.col]--
		}
	case key.Matches(msg, v.keys.Down):
		if v.grabbed == "" && v.rows[v.col] < len(v.column(v.col))-1 {
			v.rows[v.col]++
		}
	case key.Matches(msg, v.keys.Grab):
		if v.grabbed != "" {
			v.grabbed = ""
			v.setStatus("")
			return v, nil
		}
		if t, ok := v.selected(); ok {
			v.grabbed = t.ID
			v.setStatus(fmt.Sprintf("Moving %q: pick a column and press enter", t.Name))
		}
	case key.Matches(msg, v.keys.Enter):
		if v.grabbed != "" {
			return v, v.drop()
		}
	case key.Matches(msg, v.keys.Assign):
		if t, ok := v.selected(); ok {
			return v, v.assign(t.ID)
		}
	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.search.Focus()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Sort):
		next := board.SortPriority
		if v.board.Sort() == board.SortPriority {
			next = board.SortDeadline
		}
		v.board.SetSort(next)
		v.env.saveSetting(db.KeyBoardSort, next.String())
		v.setStatus("Sorted by " + next.String())
	}
	return v, nil
}

func (v *BoardView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.search.SetValue("")
		v.searching = false
		v.search.Blur()
	case key.Matches(msg, v.keys.Enter):
		v.searching = false
		v.search.Blur()
		return v, nil
	default:
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		if v.board != nil {
			v.board.SetQuery(v.search.Value())
			v.clampRows()
		}
		return v, cmd
	}
	if v.board != nil {
		v.board.SetQuery("")
		v.clampRows()
	}
	return v, nil
}

// drop releases the grabbed task on the focused column. Dropping on its own
// column just cancels the grab. The board refuses moves the role does not
// allow without sending anything.
func (v *BoardView) drop() tea.Cmd {
	id := v.grabbed
	target := models.Statuses[v.col]
	v.grabbed = ""

	t, ok := v.board.Task(id)
	if !ok || t.Status == target {
		v.setStatus("")
		return nil
	}

	if v.board.CanMove(id, target) {
		v.busy = true
		v.setStatus(fmt.Sprintf("Moving %q...", t.Name))
	}
	b, env, k := v.board, v.env, v.tickets.action()
	return func() tea.Msg {
		ctx, cancel := env.ctx()
		defer cancel()
		task, err := b.Move(ctx, id, target)
		return taskMovedMsg{ticket: k, task: task, err: err}
	}
}

func (v *BoardView) assign(id string) tea.Cmd {
	v.busy = true
	b, env, k := v.board, v.env, v.tickets.action()
	return func() tea.Msg {
		ctx, cancel := env.ctx()
		defer cancel()
		task, err := b.AssignToSelf(ctx, id)
		return taskAssignedMsg{ticket: k, task: task, err: err}
	}
}

func (v *BoardView) column(i int) []models.Task {
	if v.board == nil {
		return nil
	}
	return v.board.Column(models.Statuses[i])
}

func (v *BoardView) selected() (models.Task, bool) {
	tasks := v.column(v.col)
	if len(tasks) == 0 {
		return models.Task{}, false
	}
	return tasks[clamp(v.rows[v.col], 0, len(tasks)-1)], true
}

func (v *BoardView) clampRows() {
	for i := range v.rows {
		v.rows[i] = clamp(v.rows[i], 0, max(len(v.column(i))-1, 0))
	}
}

// focusTask puts the cursor on t in its current column
func (v *BoardView) focusTask(t models.Task) {
	for i, s := range models.Statuses {
		if s != t.Status {
			continue
		}
		v.col = i
		for j, c := range v.column(i) {
			if c.ID == t.ID {
				v.rows[i] = j
			}
		}
	}
	v.clampRows()
}

func (v *BoardView) setStatus(s string) {
	v.status = s
	v.statusErr = false
}

func (v *BoardView) setError(err error) {
	v.env.log().WithError(err).WithField("project", v.project.ID).Debug("board action failed")
	v.status = apperr.UserMessage(err)
	v.statusErr = true
}

func (v *BoardView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}
	if v.err != nil {
		return v.renderError()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		v.renderHeader(),
		"",
		v.renderColumns(),
		v.renderStatus(),
		v.help.View(v.keys),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *BoardView) renderHeader() string {
	s := v.styles
	title := s.Title.Render(v.project.Name)
	meta := s.TitleMuted.Render(fmt.Sprintf("  %s • %d members • sort: %s",
		v.board.Role(), v.members, v.board.Sort()))

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Width(clamp(styles.ContentWidth(v.width)-8, 10, 30)).Render(v.search.View())

	return lipgloss.JoinVertical(lipgloss.Left, title+meta, searchBox)
}

func (v *BoardView) renderColumns() string {
	contentWidth := styles.ContentWidth(v.width)
	colWidth := max(contentWidth/len(models.Statuses)-4, 12)
	visible := max((v.height-14)/2, 1)
	counts := v.board.Counts()

	cols := make([]string, len(models.Statuses))
	for i, status := range models.Statuses {
		box := v.columnStyle(i, status).Width(colWidth)
		title := v.styles.ColumnTitle.Render(fmt.Sprintf("%s (%d)", columnTitles[status], counts[status]))

		tasks := v.column(i)
		start := max(0, v.rows[i]-visible+1)
		end := min(start+visible, len(tasks))

		lines := []string{title, ""}
		for j := start; j < end; j++ {
			lines = append(lines, v.renderCard(tasks[j], i == v.col && j == v.rows[i], colWidth))
		}
		if len(tasks) == 0 {
			lines = append(lines, v.styles.TitleMuted.Render("empty"))
		}
		cols[i] = box.Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

type dropState int

const (
	dropNone dropState = iota
	dropAccept
	dropReject
)

// dropState tells whether column i is a drop target for the grabbed task
// and whether the actor's role allows the move
func (v *BoardView) dropState(i int, status models.Status) dropState {
	if v.grabbed == "" || i != v.col {
		return dropNone
	}
	t, _ := v.board.Task(v.grabbed)
	switch {
	case t.Status == status:
		return dropNone
	case v.board.CanMove(v.grabbed, status):
		return dropAccept
	}
	return dropReject
}

func (v *BoardView) columnStyle(i int, status models.Status) lipgloss.Style {
	switch v.dropState(i, status) {
	case dropAccept:
		return v.styles.ColumnAccept
	case dropReject:
		return v.styles.ColumnReject
	}
	if i == v.col {
		return v.styles.ColumnFocus
	}
	return v.styles.Column
}

func (v *BoardView) renderCard(t models.Task, selected bool, width int) string {
	style := v.styles.Card
	switch {
	case t.ID == v.grabbed:
		style = v.styles.CardGrabbed
	case selected:
		style = v.styles.CardSelected
	}

	name := style.MaxWidth(width).Render(t.Name)

	prio := lipgloss.NewStyle().Foreground(styles.PriorityColor(t.Priority)).Render(string(t.Priority))
	details := []string{prio}
	if t.AssigneeName != "" {
		details = append(details, t.AssigneeName)
	} else if t.Unassigned() {
		details = append(details, "unassigned")
	}
	if !t.Deadline.IsZero() {
		details = append(details, t.Deadline.Format("Jan 2"))
	}
	meta := v.styles.TitleMuted.MaxWidth(width).Render(strings.Join(details, " • "))
	return name + "\n" + meta
}

func (v *BoardView) renderStatus() string {
	if v.status == "" {
		return ""
	}
	if v.statusErr {
		return v.styles.StatusError.Render(v.status)
	}
	return v.styles.StatusOK.Render(v.status)
}

func (v *BoardView) renderError() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Danger).Render("Could not load board"),
		"",
		s.TitleMuted.Render(apperr.UserMessage(v.err)),
		"",
		s.TitleMuted.Render("r: retry • esc: back"),
	)
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *BoardView) renderHelpPopup() string {
	s := v.styles
	full := v.help
	full.ShowAll = true

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Keyboard Shortcuts"),
		"",
		full.View(v.keys),
		"",
		s.TitleMuted.Render("Press any key to close"),
	)
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
