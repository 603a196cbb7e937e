package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tgienger/toman/internal/ui"
	"github.com/tgienger/toman/internal/ui/views"
)

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	rt := a.rt
	if !rt.sess.Loaded() {
		rt.log.Warn("starting without a session token; set TOMAN_TOKEN or --token")
	}

	env := views.Env{
		Loader:  rt.asm,
		Board:   rt.boardDeps(),
		Session: rt.sess,
		Log:     rt.log,
		Timeout: rt.cfg.Timeout * 2,
	}

	var store ui.Store
	if s := rt.localStore(); s != nil {
		store = s
	}

	p := tea.NewProgram(ui.NewApp(env, store), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err := p.Run()
	return err
}
