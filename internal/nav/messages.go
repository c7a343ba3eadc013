package nav

import (
	"fmt"
	"log/slog"
	"time"

	"lmswatch/internal/types"
)

// Settle intervals per transition. The drawer exposes no loaded-indicator,
// so these are bounded stand-ins measured against the live site; the
// conversation view is the slowest to populate.
const (
	settlePanel        = 4 * time.Second
	settleCategory     = 5 * time.Second
	settleConversation = 10 * time.Second
	settleThread       = 7 * time.Second
)

// Messages is the message-drawer state machine:
//
//	PanelClosed -> PanelOpen -> CategoryOpen(name) -> ConversationOpen(id)
//
// The drawer lives in page-local state the site throws away on every
// full-page navigation, so the forums machine calls Reset after each one
// and callers re-open from the panel down.
type Messages struct {
	page   PageUI
	logger *slog.Logger

	panelOpen    bool
	category     string
	conversation *types.Conversation
}

func newMessages(page PageUI, logger *slog.Logger) *Messages {
	return &Messages{page: page, logger: logger}
}

// State is a point-in-time view of the machine.
type State struct {
	PanelOpen    bool
	Category     string
	Conversation *types.Conversation
}

// Current returns the machine's state.
func (m *Messages) Current() State {
	return State{
		PanelOpen:    m.panelOpen,
		Category:     m.category,
		Conversation: m.conversation,
	}
}

// IsCategoryOpen reports whether the named category is the open one.
func (m *Messages) IsCategoryOpen(name string) bool {
	return m.panelOpen && m.category == name
}

// Reset collapses the machine to PanelClosed. Called after every full-page
// navigation; the site already collapsed the drawer client-side, this
// brings the machine back in line with it.
func (m *Messages) Reset() {
	m.panelOpen = false
	m.category = ""
	m.conversation = nil
}

// OpenPanel opens the message drawer. No-op when already open.
func (m *Messages) OpenPanel() error {
	if m.panelOpen {
		return nil
	}

	// The drawer may already be open in the DOM from a pre-reset click.
	open, err := m.panelOpenInDOM()
	if err != nil {
		return &Error{Target: "message panel", Err: err}
	}
	if !open {
		m.logger.Info("Opening message panel")
		if err := m.page.Click(MessagingButton); err != nil {
			return &Error{Target: "message panel", Err: err}
		}
		m.page.Settle(settlePanel)
	}
	m.panelOpen = true
	return nil
}

// ClosePanel closes the drawer, backing out of any open conversation and
// category state. No-op when already closed.
func (m *Messages) ClosePanel() error {
	if !m.panelOpen {
		return nil
	}
	m.logger.Info("Closing message panel")
	if err := m.page.Click(MessagingButton); err != nil {
		return &Error{Target: "message panel", Err: err}
	}
	m.page.Settle(time.Second)
	m.Reset()
	return nil
}

func (m *Messages) panelOpenInDOM() (bool, error) {
	var open bool
	js := fmt.Sprintf(`(function() {
		const panel = document.querySelector(%q);
		return panel !== null && !panel.classList.contains('hidden');
	})()`, MessageDrawer)
	err := m.page.Eval(js, &open)
	return open, err
}

type rawCategory struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsOpen bool   `json:"isOpen"`
	Count  int    `json:"count"`
}

// Categories lists the drawer's categories, opening the panel first when
// needed.
func (m *Messages) Categories() ([]types.Category, error) {
	if err := m.OpenPanel(); err != nil {
		return nil, err
	}

	js := fmt.Sprintf(`(function() {
		const container = document.querySelector(%q);
		if (!container) return null;
		return Array.from(container.children).map(child => {
			const countMatch = child.textContent.match(/\((\d+)\)/);
			return {
				id: child.children[0] ? child.children[0].id : '',
				name: child.textContent.split('\n')[0].trim(),
				isOpen: child.classList.contains('expanded'),
				count: countMatch ? parseInt(countMatch[1], 10) : 0,
			};
		});
	})()`, CategoryContainer)

	var raw []rawCategory
	if err := m.page.Eval(js, &raw); err != nil {
		return nil, &Error{Target: "category list", Err: err}
	}
	if raw == nil {
		return nil, &Error{Target: "category list", Err: fmt.Errorf("category container not found")}
	}

	categories := make([]types.Category, len(raw))
	for i, r := range raw {
		categories[i] = types.Category{
			ID:                r.ID,
			Name:              r.Name,
			IsOpen:            r.IsOpen,
			ConversationCount: r.Count,
		}
	}
	return categories, nil
}

// OpenCategory expands the named category. Opening the open category is a
// no-op; a different open category is collapsed first.
func (m *Messages) OpenCategory(name string) error {
	categories, err := m.Categories()
	if err != nil {
		return err
	}

	var target *types.Category
	var open *types.Category
	for i := range categories {
		if categories[i].Name == name {
			target = &categories[i]
		}
		if categories[i].IsOpen {
			open = &categories[i]
		}
	}
	if target == nil {
		return &Error{Target: "category " + name, Err: fmt.Errorf("not in category list")}
	}

	if target.IsOpen {
		m.category = name
		return nil
	}

	if open != nil {
		m.logger.Info("Collapsing category", "category", open.Name)
		if err := m.page.Click("#" + open.ID); err != nil {
			return &Error{Target: "category " + open.Name, Err: err}
		}
		m.page.Settle(settleCategory)
	}

	m.logger.Info("Opening category", "category", name)
	if err := m.page.Click("#" + target.ID); err != nil {
		return &Error{Target: "category " + name, Err: err}
	}
	m.page.Settle(settleCategory)
	m.category = name
	return nil
}

type rawConversation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsTrainer bool   `json:"isTrainer"`
}

// Conversations lists the open category's conversations.
func (m *Messages) Conversations() ([]types.Conversation, error) {
	if m.category == "" {
		return nil, &Error{Target: "conversation list", Err: fmt.Errorf("no category open")}
	}

	js := fmt.Sprintf(`(function() {
		const expanded = document.querySelector('.expanded');
		if (!expanded) return null;
		const parse = el => {
			const lines = el.innerText.trim().replace(/ {2,}/g, '').split('\n').filter(Boolean);
			return { name: lines[0] || '', isTrainer: lines[1] === 'Trainer' };
		};
		const anchors = Array.from(expanded.querySelectorAll(%q));
		if (anchors.length > 0)
			return anchors.map(a => Object.assign(parse(a), { id: a.dataset.conversationId }));
		return Array.from(expanded.querySelectorAll(%q))
			.map(el => Object.assign(parse(el), { id: '' }));
	})()`, ConversationAnchor, ConversationLine)

	var raw []rawConversation
	if err := m.page.Eval(js, &raw); err != nil {
		return nil, &Error{Target: "conversation list", Err: err}
	}
	if raw == nil {
		return nil, &Error{Target: "conversation list", Err: fmt.Errorf("expanded category not found")}
	}
	if len(raw) == 0 {
		return nil, &Error{Target: "conversation list", Err: fmt.Errorf("no conversations in category")}
	}

	conversations := make([]types.Conversation, len(raw))
	for i, r := range raw {
		conversations[i] = types.Conversation{ID: r.ID, Name: r.Name, IsStaff: r.IsTrainer}
	}
	return conversations, nil
}

// OpenConversation opens a conversation in the current category. Opening
// the open conversation is a no-op; a different open conversation is backed
// out of first.
func (m *Messages) OpenConversation(conv types.Conversation) error {
	if m.conversation != nil && sameConversation(*m.conversation, conv) {
		return nil
	}
	if m.conversation != nil {
		if err := m.CloseConversation(); err != nil {
			return err
		}
	}
	if m.category == "" {
		return &Error{Target: "conversation " + conv.Name, Err: fmt.Errorf("no category open")}
	}

	m.logger.Info("Opening conversation", "conversation", conv.Name)
	expr := fmt.Sprintf(`//strong[text()=%q]`, conv.Name)
	if err := m.page.ClickXPath(expr); err != nil {
		return &Error{Target: "conversation " + conv.Name, Err: err}
	}
	m.page.Settle(settleConversation)
	c := conv
	m.conversation = &c
	return nil
}

// CloseConversation backs out to the conversation list. No-op when no
// conversation is open.
func (m *Messages) CloseConversation() error {
	if m.conversation == nil {
		return nil
	}
	m.logger.Info("Closing conversation", "conversation", m.conversation.Name)
	if err := m.page.Click(BackButton); err != nil {
		return &Error{Target: "conversation back button", Err: err}
	}
	m.page.Settle(settleCategory)
	m.conversation = nil
	return nil
}

func sameConversation(a, b types.Conversation) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Name == b.Name
}
