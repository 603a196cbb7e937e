package views

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/ui/keys"
	"github.com/tgienger/toman/internal/ui/styles"
)

const recentLimit = 10

type workspaceItem struct {
	workspace models.Workspace
	projects  int
	recent    bool
}

func (i workspaceItem) Title() string { return i.workspace.Name }
func (i workspaceItem) Description() string {
	d := fmt.Sprintf("%d projects • %s", i.projects, i.workspace.Visibility)
	if i.recent {
		d += " • recent"
	}
	return d
}
func (i workspaceItem) FilterValue() string { return i.workspace.Name }

// itemDelegate renders two-line list rows
type itemDelegate struct {
	styles *styles.Styles
	width  int
}

func (d itemDelegate) Height() int                               { return 2 }
func (d itemDelegate) Spacing() int                              { return 1 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(list.DefaultItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	base := d.styles.ListItem
	if index == m.Index() {
		base = d.styles.ListSelected
	}
	title := base.Width(width).Render(it.Title())
	desc := base.Foreground(styles.Current.Muted).Width(width).Render(it.Description())
	fmt.Fprintf(w, "%s\n%s", title, desc)
}

type workspacesLoadedMsg struct {
	ticket    ticket
	dashboard models.Dashboard
	recent    []string
	err       error
}

// WorkspaceListView lists the workspaces the user belongs to, recently
// visited ones first
type WorkspaceListView struct {
	env      Env
	tickets  tickets
	list     list.Model
	delegate *itemDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	err      error

	showHelpPopup bool
}

// NewWorkspaceListView creates the workspace list
func NewWorkspaceListView(env Env) *WorkspaceListView {
	s := styles.NewStyles()
	delegate := &itemDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Workspaces"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &WorkspaceListView{
		env:      env,
		tickets:  newTickets(),
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
}

func (v *WorkspaceListView) Init() tea.Cmd {
	return v.load()
}

func (v *WorkspaceListView) load() tea.Cmd {
	k, env := v.tickets.nextLoad(), v.env
	return func() tea.Msg {
		ctx, cancel := env.ctx()
		defer cancel()

		dash, err := env.Loader.LoadDashboard(ctx)
		if err != nil {
			return workspacesLoadedMsg{ticket: k, err: err}
		}

		var recent []string
		if env.Store != nil {
			rs, err := env.Store.RecentWorkspaces(recentLimit)
			if err != nil {
				env.log().WithError(err).Warn("reading recent workspaces")
			}
			for _, r := range rs {
				recent = append(recent, r.ID)
			}
		}
		return workspacesLoadedMsg{ticket: k, dashboard: dash, recent: recent}
	}
}

// orderByRecent puts recently visited workspaces first, in visit order,
// followed by the rest in their original order
func orderByRecent(all []models.Workspace, recent []string) []models.Workspace {
	rank := make(map[string]int, len(recent))
	for i, id := range recent {
		rank[id] = i
	}
	out := make([]models.Workspace, 0, len(all))
	var rest []models.Workspace
	byID := make(map[string]models.Workspace, len(all))
	for _, ws := range all {
		if _, ok := rank[ws.ID]; ok {
			byID[ws.ID] = ws
		} else {
			rest = append(rest, ws)
		}
	}
	for _, id := range recent {
		if ws, ok := byID[id]; ok {
			out = append(out, ws)
		}
	}
	return append(out, rest...)
}

func (v *WorkspaceListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case workspacesLoadedMsg:
		if !v.tickets.currentLoad(msg.ticket) {
			return v, nil
		}
		v.loaded = true
		v.err = msg.err
		if msg.err != nil {
			return v, nil
		}
		recent := make(map[string]bool, len(msg.recent))
		for _, id := range msg.recent {
			recent[id] = true
		}
		ordered := orderByRecent(msg.dashboard.Workspaces, msg.recent)
		items := make([]list.Item, len(ordered))
		for i, ws := range ordered {
			items[i] = workspaceItem{workspace: ws, projects: len(ws.ProjectIDs), recent: recent[ws.ID]}
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
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Refresh):
			v.loaded = false
			return v, v.load()
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(workspaceItem); ok {
				ws := item.workspace
				return v, func() tea.Msg {
					return SelectedWorkspace{ID: ws.ID, Name: ws.Name}
				}
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *WorkspaceListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}
	if v.err != nil {
		return v.renderError()
	}
	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *WorkspaceListView) renderError() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Danger).Render("Could not load workspaces"),
		"",
		s.TitleMuted.Render(apperr.UserMessage(v.err)),
		"",
		s.TitleMuted.Render("r: retry • q: quit"),
	)
	return v.place(content)
}

func (v *WorkspaceListView) renderEmpty() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Workspaces"),
		"",
		s.TitleMuted.Render("Create one with 'toman workspace create' or join with 'toman join <code>'"),
	)
	return v.place(content)
}

func (v *WorkspaceListView) place(content string) string {
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *WorkspaceListView) renderHelp() string {
	if w := styles.ContentWidth(v.width); w > 0 && w < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s filter • %s refresh • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *WorkspaceListView) renderHelpPopup() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Keyboard Shortcuts"),
		"",
		s.HelpKey.Render("↵")+"      open workspace",
		s.HelpKey.Render("/")+"      filter",
		s.HelpKey.Render("r")+"      refresh",
		s.HelpKey.Render("q")+"      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	)
	return v.place(s.Popup.Render(content))
}
