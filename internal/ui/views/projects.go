package views

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/ui/keys"
	"github.com/tgienger/toman/internal/ui/styles"
)

type projectItem struct {
	summary models.ProjectSummary
}

func (i projectItem) Title() string       { return i.summary.Project.Name }
func (i projectItem) Description() string { return i.summary.Project.Description }
func (i projectItem) FilterValue() string { return i.summary.Project.Name }

type projectDelegate struct {
	styles *styles.Styles
	bar    progress.Model
	width  int
}

func (d *projectDelegate) Height() int                               { return 2 }
func (d *projectDelegate) Spacing() int                              { return 1 }
func (d *projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d *projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	base := d.styles.ListItem
	if index == m.Index() {
		base = d.styles.ListSelected
	}

	sum := p.summary
	badge := lipgloss.NewStyle().Foreground(styles.BucketColor(sum.Status)).Render(string(sum.Status))
	d.bar.Width = clamp(width-40, 10, 30)
	stats := fmt.Sprintf("%s %3d%% • %d tasks • %s",
		d.bar.ViewAs(float64(sum.Progress)/100),
		sum.Progress,
		len(sum.Project.TaskIDs),
		badge,
	)

	title := base.Width(width).Render(p.Title())
	line := base.Foreground(styles.Current.Muted).Width(width).Render(stats)
	fmt.Fprintf(w, "%s\n%s", title, line)
}

type workspaceViewLoadedMsg struct {
	ticket ticket
	view   models.WorkspaceView
	err    error
}

// ProjectListView shows the projects of one workspace with their derived
// status and progress
type ProjectListView struct {
	env         Env
	tickets     tickets
	workspaceID string
	view        models.WorkspaceView
	list        list.Model
	delegate    *projectDelegate
	styles      *styles.Styles
	keys        keys.KeyMap
	width       int
	height      int
	loaded      bool
	err         error

	showHelpPopup bool
}

// NewProjectListView creates the project list for workspaceID
func NewProjectListView(env Env, workspaceID, name string) *ProjectListView {
	s := styles.NewStyles()
	delegate := &projectDelegate{
		styles: s,
		bar: progress.New(
			progress.WithSolidFill(string(styles.Current.OK)),
			progress.WithoutPercentage(),
		),
		width: 80,
	}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = name
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		env:         env,
		tickets:     newTickets(),
		workspaceID: workspaceID,
		view:        models.WorkspaceView{Workspace: models.Workspace{ID: workspaceID, Name: name}},
		list:        l,
		delegate:    delegate,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
	}
}

// Workspace returns the loaded workspace
func (v *ProjectListView) Workspace() models.Workspace {
	return v.view.Workspace
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.load()
}

func (v *ProjectListView) load() tea.Cmd {
	k, env, id := v.tickets.nextLoad(), v.env, v.workspaceID
	return func() tea.Msg {
		ctx, cancel := env.ctx()
		defer cancel()
		view, err := env.Loader.LoadWorkspaceView(ctx, id)
		return workspaceViewLoadedMsg{ticket: k, view: view, err: err}
	}
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-7)
		return v, nil

	case workspaceViewLoadedMsg:
		if !v.tickets.currentLoad(msg.ticket) {
			return v, nil
		}
		v.loaded = true
		v.err = msg.err
		if msg.err != nil {
			return v, nil
		}
		v.view = msg.view
		v.list.Title = msg.view.Workspace.Name
		items := make([]list.Item, len(msg.view.Projects))
		for i, p := range msg.view.Projects {
			items[i] = projectItem{summary: p}
		}
		v.list.SetItems(items)
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			if v.list.FilterState() == list.FilterApplied {
				break
			}
			return v, func() tea.Msg { return BackToWorkspaces{} }
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Refresh):
			v.loaded = false
			return v, v.load()
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				wsID, p := v.workspaceID, item.summary.Project
				return v, func() tea.Msg {
					return SelectedProject{WorkspaceID: wsID, Project: p}
				}
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}
	if v.err != nil {
		return v.renderError()
	}

	members := v.styles.TitleMuted.Render(fmt.Sprintf("  %d members • owner %s",
		len(v.view.Members), v.ownerName()))

	body := v.list.View()
	if len(v.list.Items()) == 0 {
		body = v.styles.Title.Render("  "+v.view.Workspace.Name) + "\n\n" +
			v.styles.TitleMuted.Render("  No projects yet. Create one with 'toman project create'.")
	}
	content := lipgloss.JoinVertical(lipgloss.Left, body, members, v.renderHelp())
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) ownerName() string {
	for _, m := range v.view.Members {
		if m.ID == v.view.Workspace.OwnerID {
			return m.Name
		}
	}
	return models.UnknownUserName
}

func (v *ProjectListView) renderError() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Danger).Render("Could not load workspace"),
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

func (v *ProjectListView) renderHelp() string {
	if w := styles.ContentWidth(v.width); w > 0 && w < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s board • %s filter • %s refresh • %s back • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Keyboard Shortcuts"),
		"",
		s.HelpKey.Render("↵")+"      open board",
		s.HelpKey.Render("/")+"      filter",
		s.HelpKey.Render("r")+"      refresh",
		s.HelpKey.Render("esc")+"    workspaces",
		s.HelpKey.Render("q")+"      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	)
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
