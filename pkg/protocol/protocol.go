// Package protocol implements the optimistic placeholder/commit protocol
// that reconciles an asynchronous metadata fetch with a live, user-editable
// document. A placeholder embed is inserted synchronously, the network work
// runs afterwards, and the final embed only replaces the placeholder when
// the placeholder region is still byte-identical to its insertion-time
// snapshot.
package protocol

import (
	"fmt"

	"github.com/Doomwhite/obsidian-link-embed/models"
)

// State names one phase of an embed operation.
type State string

const (
	StateIdle                State = "idle"
	StatePlaceholderInserted State = "placeholder_inserted"
	StateResolving           State = "resolving"
	StateImageFetching       State = "image_fetching"
	StateReadyToCommit       State = "ready_to_commit"
	StateCommitted           State = "committed"
	StateAborted             State = "aborted"
)

// transitions is the allowed state graph. Every state can abort; forward
// progress is strictly ordered.
var transitions = map[State][]State{
	StateIdle:                {StatePlaceholderInserted, StateAborted},
	StatePlaceholderInserted: {StateResolving, StateAborted},
	StateResolving:           {StateImageFetching, StateAborted},
	StateImageFetching:       {StateReadyToCommit, StateAborted},
	StateReadyToCommit:       {StateCommitted, StateAborted},
}

// PlaceholderRegion records exactly where the placeholder sits and what it
// looked like at insertion time. The snapshot is the only basis for the
// commit-time intactness check: pure byte equality, no diffing.
type PlaceholderRegion struct {
	Start        models.Position
	End          models.Position
	RenderedText string
}

// DocumentConflict means the placeholder region no longer matches its
// snapshot, so the final embed was discarded.
type DocumentConflict struct {
	Region PlaceholderRegion
}

func (e *DocumentConflict) Error() string {
	return fmt.Sprintf("placeholder at %s..%s was modified, embed cancelled", e.Region.Start, e.Region.End)
}

// Operation is the per-invocation context for one embed. Each operation
// owns its Selection and PlaceholderRegion; nothing is shared between
// concurrent operations except the document itself.
type Operation struct {
	URL       string
	Selection models.Selection
	Region    PlaceholderRegion
	Result    *models.ParseResult
	Parser    string
	Image     *models.DownloadedImage

	state State
}

// State returns the operation's current state.
func (o *Operation) State() State { return o.state }

func (o *Operation) transition(to State) error {
	for _, allowed := range transitions[o.state] {
		if allowed == to {
			o.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s", o.state, to)
}
