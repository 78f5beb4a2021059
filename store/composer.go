package store

// Composer is the draft state of the next user message.
type Composer struct {
	Text        string
	Model       string
	Tool        string
	Attachments []string
}

func (c Composer) clone() Composer {
	out := c
	if c.Attachments != nil {
		out.Attachments = append([]string(nil), c.Attachments...)
	}
	return out
}

// SetComposerText replaces the draft text.
func (s *Store) SetComposerText(text string) {
	s.mu.Lock()
	s.composer.Text = text
	s.notifyLocked()
}

// SetComposerModel selects the model override for the next message.
func (s *Store) SetComposerModel(model string) {
	s.mu.Lock()
	s.composer.Model = model
	s.notifyLocked()
}

// SetComposerTool pins the next message to a named tool. Empty unpins.
func (s *Store) SetComposerTool(tool string) {
	s.mu.Lock()
	s.composer.Tool = tool
	s.notifyLocked()
}

// AddComposerAttachment records an uploaded attachment on the draft.
func (s *Store) AddComposerAttachment(id string) {
	s.mu.Lock()
	for _, existing := range s.composer.Attachments {
		if existing == id {
			s.notifyLocked()
			return
		}
	}
	s.composer.Attachments = append(s.composer.Attachments, id)
	s.notifyLocked()
}

// RemoveComposerAttachment drops an attachment from the draft.
func (s *Store) RemoveComposerAttachment(id string) {
	s.mu.Lock()
	for i, existing := range s.composer.Attachments {
		if existing == id {
			s.composer.Attachments = append(s.composer.Attachments[:i], s.composer.Attachments[i+1:]...)
			break
		}
	}
	s.notifyLocked()
}

// ClearComposer resets the draft after a message is sent.
func (s *Store) ClearComposer() {
	s.mu.Lock()
	s.composer = Composer{}
	s.notifyLocked()
}
