package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/model"
	"github.com/roach88/conclave/internal/store"
)

// TranscriptLine is one chat in a meeting transcript.
type TranscriptLine struct {
	Agent     string    `json:"agent"`
	AgentID   string    `json:"agent_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MeetingTranscript is the JSON form of a meeting and its chats.
type MeetingTranscript struct {
	ID      string           `json:"meeting_id"`
	Meeting string           `json:"meeting_name"`
	Lines   []TranscriptLine `json:"chats"`

	entries []model.AuthoredChat
}

func newMeetingTranscript(m *model.Meeting, entries []model.AuthoredChat) MeetingTranscript {
	t := MeetingTranscript{ID: m.ID, Meeting: m.Name, Lines: make([]TranscriptLine, 0, len(entries)), entries: entries}
	for _, e := range entries {
		t.Lines = append(t.Lines, TranscriptLine{
			Agent:     e.Author.Name,
			AgentID:   e.Author.ID,
			Content:   e.Chat.Content,
			CreatedAt: e.Chat.CreatedAt,
		})
	}
	return t
}

// TranscriptOptions holds flags for the transcript command.
type TranscriptOptions struct {
	*RootOptions
	DB      string
	Meeting string
}

// NewTranscriptCommand creates the transcript command.
func NewTranscriptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranscriptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Print a meeting's chats in order",
		Long: `Print the chats of one meeting, oldest first, each with its author's
name. Without --meeting the meetings of the store are listed.

--meeting accepts a meeting ID or a meeting name; a name shared by several
meetings selects the oldest.

Examples:
  conclave transcript --db debate
  conclave transcript --db debate --meeting debate`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "conclave", "store name")
	cmd.Flags().StringVarP(&opts.Meeting, "meeting", "m", "", "meeting ID or name")

	return cmd
}

func runTranscript(cmd *cobra.Command, opts *TranscriptOptions) error {
	if err := opts.resolve(cmd.ErrOrStderr()); err != nil {
		return err
	}
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	sess, err := opts.openExisting(opts.DB)
	if err != nil {
		return out.Fail(ExitCommandError, CodeStore, "open store", err)
	}
	defer sess.Close()

	snap, err := sess.Snapshot(ctx)
	if err != nil {
		return out.Fail(ExitCommandError, CodeStore, "read store", err)
	}

	if opts.Meeting == "" {
		return out.Emit(snap.Meetings, func(w io.Writer) error {
			return writeMeetings(w, snap)
		})
	}

	m := findMeeting(snap.Meetings, opts.Meeting)
	if m == nil {
		return out.Fail(ExitCommandError, CodeNotFound, "unknown meeting",
			fmt.Errorf("%q: %w", opts.Meeting, store.ErrNotFound))
	}
	entries, err := sess.Transcript(ctx, m.ID)
	if err != nil {
		return out.Fail(ExitCommandError, CodeStore, "read transcript", err)
	}

	return out.Emit(newMeetingTranscript(m, entries), func(w io.Writer) error {
		return meeting.WriteTranscript(w, entries)
	})
}

func findMeeting(meetings []*model.Meeting, ref string) *model.Meeting {
	for _, m := range meetings {
		if m.ID == ref {
			return m
		}
	}
	for _, m := range meetings {
		if m.Name == ref {
			return m
		}
	}
	return nil
}

func writeMeetings(w io.Writer, snap store.Snapshot) error {
	chats := make(map[string]int)
	for _, c := range snap.Chats {
		chats[c.MeetingID]++
	}
	members := make(map[string]int)
	for _, m := range snap.Memberships {
		members[m.MeetingID]++
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMEMBERS\tCHATS")
	for _, m := range snap.Meetings {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", m.ID, m.Name, members[m.ID], chats[m.ID])
	}
	return tw.Flush()
}
