package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/client/services"
	"github.com/dmitrijs2005/statsync/internal/timex"
)

func writePull(w io.Writer, res services.PullResult) {
	if res.Err != nil {
		fmt.Fprintf(w, "pull %-9s %s: %v\n", res.Database, res.State, res.Err)
		return
	}
	cursor := "never"
	if !res.Cursor.IsZero() {
		cursor = timex.FormatStamp(res.Cursor)
	}
	fmt.Fprintf(w, "pull %-9s %s received=%d applied=%d last_synch=%s\n",
		res.Database, res.State, res.Received, res.Applied, cursor)

	states := make([]models.SyncState, 0, len(res.States))
	for st := range res.States {
		if st.IsError() {
			states = append(states, st)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	for _, st := range states {
		fmt.Fprintf(w, "  %s: %d\n", st, res.States[st])
	}
	if res.SaveErr != nil {
		fmt.Fprintf(w, "  save failed: %v\n", res.SaveErr)
	}
}

func writePush(w io.Writer, batch string, results []services.PushResult) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "push %-9s %s: %v (pending=%d)\n", res.Database, res.State, res.Err, res.Pending)
			continue
		}
		fmt.Fprintf(w, "push %-9s %s batch=%s sent=%d acknowledged=%d pending=%d\n",
			res.Database, res.State, batch, res.Sent, res.Acknowledged, res.Pending)
		for _, rej := range res.Rejected {
			fmt.Fprintf(w, "  rejected %s: %s\n", rej.URI, rej.Reason)
		}
		if res.SaveErr != nil {
			fmt.Fprintf(w, "  save failed: %v\n", res.SaveErr)
		}
	}
}
