package chat

import (
	"paperchat/internal/api"
)

// Messages for tea updates. All of these are produced by commands and
// consumed by Update on the program goroutine.
type (
	// documentsMsg carries the result of a document list fetch.
	documentsMsg struct {
		docs []api.Document
		err  error
	}

	// fileUploadedMsg reports the outcome of one file in an upload batch.
	fileUploadedMsg struct {
		name string
		err  error
	}

	// answerMsg carries the backend's reply to a question, or the error
	// that prevented one.
	answerMsg struct {
		resp *api.AskResponse
		err  error
	}

	// documentDeletedMsg reports the outcome of a delete request.
	documentDeletedMsg struct {
		id   string
		name string
		err  error
	}

	// bannerRetriggerMsg replays the knowledge mode banner. Init sends it
	// once so the first reveal starts inside the update loop.
	bannerRetriggerMsg struct{}

	// watchedFileMsg carries a settled file path from the inbox watcher.
	watchedFileMsg struct {
		path string
	}
)
