// Package tui is the interactive terminal front end: pick a model, chat
// with it, benchmark it, and watch disk and memory headroom while doing so.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/chat"
	"github.com/jeanpaul/alacrity/internal/engine"
	"github.com/jeanpaul/alacrity/internal/model"
	"github.com/jeanpaul/alacrity/internal/storage"
)

var (
	// Chat spinner, Braille dots
	ThinkingSpinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    time.Second / 12,
	}

	// Benchmark spinner, loading bar
	BenchSpinner = spinner.Spinner{
		Frames: []string{"[    ]", "[=   ]", "[==  ]", "[=== ]", "[====]", "[ ===]", "[  ==]", "[   =]"},
		FPS:    time.Second / 10,
	}
)

// Deps bundles everything the TUI drives.
type Deps struct {
	Engine      engine.Engine
	Store       *model.Store
	Downloader  *model.Downloader
	Storage     *storage.Monitor
	StorageOpts storage.Options
	Memory      *storage.MemMonitor
	MemoryOpts  storage.Options
	Runner      *bench.Runner
	Results     *bench.ResultStore
	Watcher     *model.Watcher // may be nil; catalog refresh is off without it
	SessionDir  string
	ChatTokens  int    // context budget handed to new sessions
	ChatSystem  string // optional system prompt for new sessions
	Version     string
}

type statusSource int

const (
	srcStorage statusSource = iota
	srcMemory
)

type initMsg struct{}

type chunkMsg engine.Chunk

type benchEventMsg bench.Event

type statusMsg struct {
	src statusSource
	st  storage.Status
	ok  bool
}

type downloadProgressMsg model.Progress

type downloadDoneMsg struct {
	mdl model.Model
	err error
}

type catalogChangedMsg struct {
	ev model.WatchEvent
	ok bool
}

type chatMessage struct {
	role    string
	content string
}

type Model struct {
	width, height int
	viewport      viewport.Model
	textarea      textarea.Model
	spinner       spinner.Model
	messages      []chatMessage
	thinking      bool
	benching      bool
	downloading   bool

	menu   MenuModel
	picker PickerModel

	deps    Deps
	current model.Model
	initial *model.Model
	session *chat.Session

	storageStatus storage.Status
	memoryStatus  storage.Status
	storageCh     <-chan storage.Status
	memoryCh      <-chan storage.Status
	streamCh      <-chan engine.Chunk
	benchCh       <-chan bench.Event

	dlTarget  string
	dlPercent float64
	dlBar     progress.Model
	dlProgCh  <-chan model.Progress
	dlDoneCh  <-chan downloadDoneMsg

	ctx      context.Context
	cancel   context.CancelFunc
	renderer *glamour.TermRenderer
}

// NewModel builds the TUI. initial may be nil, in which case the user picks
// a model first.
func NewModel(deps Deps, initial *model.Model) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message, / for commands..."
	ta.Focus()
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(White)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(DimGreen)
	ta.BlurredStyle.Base = lipgloss.NewStyle().Foreground(DarkGreen)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = ThinkingSpinner
	sp.Style = SpinnerStyle

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		viewport:      vp,
		textarea:      ta,
		spinner:       sp,
		deps:          deps,
		initial:       initial,
		storageStatus: storage.Status{IsOk: true},
		memoryStatus:  storage.Status{IsOk: true},
		ctx:           ctx,
		cancel:        cancel,
		renderer:      r,
		menu:          NewMenuModel(),
		picker:        NewPickerModel(nil),
		dlBar:         progress.New(progress.WithSolidFill("#00FF41"), progress.WithWidth(30)),
	}

	m.messages = append(m.messages, chatMessage{
		role: "welcome",
		content: "Welcome to alacrity.\n\n" +
			"Chat with a local model, benchmark it, and keep an eye on disk\n" +
			"and memory headroom while you do.\n\n" +
			"  /models   pick a model\n" +
			"  /bench    measure throughput\n" +
			"  /help     everything else",
	})
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spinner.Tick,
		tea.EnableMouseCellMotion,
		func() tea.Msg { return initMsg{} },
	}
	if m.deps.Watcher != nil {
		cmds = append(cmds, waitCatalog(m.deps.Watcher.Events()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case initMsg:
		if m.initial != nil {
			mdl := *m.initial
			m.initial = nil
			cmd := m.selectModel(mdl)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.rebuildView()

	case tea.KeyMsg:
		if m.menu.active {
			return m.updateMenu(msg)
		}
		if m.picker.active {
			return m.updatePicker(msg)
		}

		// Menu opens on / when the input is empty.
		if msg.String() == "/" && m.textarea.Value() == "" && !m.thinking {
			m.menu.active = true
			m.menu.list.ResetSelected()
			m.menu.list.ResetFilter()
			m.layout()
			m.rebuildView()
			var cmd tea.Cmd
			m.menu, cmd = m.menu.Update(msg)
			return m, cmd
		}

		switch msg.Type {
		case tea.KeyPgUp:
			m.viewport.HalfViewUp()
			return m, nil
		case tea.KeyPgDown:
			m.viewport.HalfViewDown()
			return m, nil
		case tea.KeyEsc:
			m.saveSession()
			m.cancel()
			return m, tea.Quit
		case tea.KeyCtrlC:
			if m.thinking || m.benching || m.downloading {
				return m, m.interrupt()
			}
			m.saveSession()
			m.cancel()
			return m, tea.Quit
		case tea.KeyEnter:
			if msg.Alt {
				break
			}
			return m.submit()
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress || msg.Action == tea.MouseActionMotion {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.viewport.LineUp(3)
				return m, nil
			case tea.MouseButtonWheelDown:
				m.viewport.LineDown(3)
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case chunkMsg:
		return m.onChunk(engine.Chunk(msg))

	case benchEventMsg:
		return m.onBenchEvent(bench.Event(msg))

	case downloadProgressMsg:
		if !m.downloading {
			return m, nil
		}
		m.dlPercent = msg.Percent
		m.rebuildView()
		return m, waitDownloadProgress(m.dlProgCh)

	case downloadDoneMsg:
		if !m.downloading {
			return m, nil
		}
		m.downloading = false
		if msg.err != nil {
			m.addError(msg.err.Error())
			m.rebuildView()
			return m, nil
		}
		m.addSystem("Downloaded " + msg.mdl.DisplayName())
		return m, m.selectModel(msg.mdl)

	case catalogChangedMsg:
		if !msg.ok {
			return m, nil
		}
		if m.picker.active {
			if models, err := m.deps.Store.List(m.ctx); err == nil {
				m.picker.SetModels(mergePresets(models, model.Presets()))
			}
		}
		if msg.ev.Op != "create" && m.current.Path != "" &&
			filepath.Clean(msg.ev.Path) == filepath.Clean(m.current.Path) {
			m.addSystem(m.current.DisplayName() + " was removed from disk.")
			m.rebuildView()
		}
		return m, waitCatalog(m.deps.Watcher.Events())

	case statusMsg:
		if !msg.ok {
			// Monitor closed the stream; nothing more will arrive for
			// this model.
			return m, nil
		}
		switch msg.src {
		case srcStorage:
			m.storageStatus = msg.st
			return m, waitStatus(srcStorage, m.storageCh)
		case srcMemory:
			m.memoryStatus = msg.st
			return m, waitStatus(srcMemory, m.memoryCh)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	if !m.menu.active && !m.picker.active {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)

	switch msg.String() {
	case "enter":
		if it, ok := m.menu.list.SelectedItem().(item); ok {
			m.menu.active = false
			m.layout()
			if it.title == "/quit" {
				m.saveSession()
				m.cancel()
				return m, tea.Quit
			}
			m.textarea.SetValue(it.title)
			m.textarea.Focus()
		}
	case "esc":
		typed := m.menu.list.FilterValue()
		m.menu.active = false
		m.layout()
		m.textarea.SetValue("/" + typed)
		m.textarea.Focus()
	}
	m.rebuildView()
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if sel := m.picker.TakeSelection(); sel != nil {
		m.layout()
		if sel.OnDisk() {
			return m, m.selectModel(*sel)
		}
		return m, m.startDownload(*sel)
	}
	if !m.picker.active {
		m.layout()
		m.rebuildView()
	}
	return m, cmd
}

// submit handles Enter in the input box.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}
	if m.thinking || m.benching || m.downloading {
		m.addSystem("Busy... Ctrl+C cancels the current operation.")
		m.rebuildView()
		return m, nil
	}
	m.textarea.Reset()

	if strings.HasPrefix(text, "/") {
		return m.handleSlashCommand(text)
	}

	if m.session == nil {
		m.addSystem("Pick a model first: /models")
		m.rebuildView()
		return m, nil
	}

	m.session.AddUser(text)
	m.messages = append(m.messages, chatMessage{role: "user", content: text})
	m.thinking = true
	m.spinner.Spinner = ThinkingSpinner
	m.rebuildView()

	ch, err := m.deps.Engine.Complete(m.ctx, engine.Request{Messages: m.session.Messages()})
	if err != nil {
		m.thinking = false
		m.addError(err.Error())
		m.rebuildView()
		return m, nil
	}
	m.streamCh = ch
	return m, waitChunk(ch)
}

// onChunk folds one streamed completion chunk into the transcript. Chunks
// from a stream cancelled by interrupt are dropped.
func (m Model) onChunk(chunk engine.Chunk) (tea.Model, tea.Cmd) {
	if !m.thinking {
		return m, nil
	}
	if chunk.Error != nil {
		m.thinking = false
		m.addError(chunk.Error.Error())
		m.rebuildView()
		return m, nil
	}

	if chunk.Delta != "" {
		if len(m.messages) == 0 || m.messages[len(m.messages)-1].role != "model" {
			m.messages = append(m.messages, chatMessage{role: "model"})
		}
		m.messages[len(m.messages)-1].content += chunk.Delta
	}

	if chunk.Done {
		m.thinking = false
		if len(m.messages) > 0 && m.messages[len(m.messages)-1].role == "model" {
			m.session.AddAssistant(m.messages[len(m.messages)-1].content)
		}
		if chunk.Timings != nil {
			m.addSystem(fmt.Sprintf("%.1f t/s", chunk.Timings.PredictedTPS()))
		}
		m.rebuildView()
		return m, nil
	}

	m.rebuildView()
	return m, waitChunk(m.streamCh)
}

// onBenchEvent narrates a benchmark run in the transcript.
func (m Model) onBenchEvent(ev bench.Event) (tea.Model, tea.Cmd) {
	if !m.benching {
		return m, nil
	}
	switch ev.Type {
	case bench.EventStart:
		m.messages = append(m.messages, chatMessage{
			role:    "bench",
			content: fmt.Sprintf("benchmarking %s, %d repetitions", m.current.DisplayName(), ev.Total),
		})
	case bench.EventWarmup:
		m.appendBenchLine("warmup run...")
	case bench.EventRepStart:
		m.appendBenchLine(fmt.Sprintf("rep %d/%d...", ev.Rep, ev.Total))
	case bench.EventRepDone:
		m.replaceBenchLine(fmt.Sprintf("rep %d/%d: pp %.1f t/s, tg %.1f t/s",
			ev.Rep, ev.Total, ev.Sample.PromptTPS, ev.Sample.GenTPS))
	case bench.EventError:
		m.benching = false
		m.addError(ev.Err.Error())
		m.rebuildView()
		return m, nil
	case bench.EventDone:
		m.benching = false
		if err := m.deps.Results.Add(*ev.Result); err != nil {
			m.addError("result not saved: " + err.Error())
		}
		m.appendBenchLine("done: " + ev.Result.Summary())
		m.rebuildView()
		return m, nil
	}

	m.rebuildView()
	return m, waitBench(m.benchCh)
}

func (m Model) handleSlashCommand(text string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(text)

	switch parts[0] {
	case "/help":
		m.addSystem(`Available commands:
  /help         show this help
  /models       pick a model from the local catalog
  /bench [p]    run a benchmark preset (default tg128)
  /results      show recent benchmark results
  /storage      show disk and memory status
  /compact      compress conversation to save context
  /clear        clear conversation history
  /save [path]  export conversation to markdown
  /resume       pick up the most recent saved conversation
  /quit         exit

Keyboard:
  Enter         send message
  Alt+Enter     new line
  Ctrl+C        cancel current operation / quit
  PgUp/PgDown   scroll
  Esc           quit`)

	case "/models":
		models, err := m.deps.Store.List(m.ctx)
		if err != nil {
			m.addError(err.Error())
			break
		}
		presets := model.Presets()
		models = mergePresets(models, presets)
		m.picker.SetModels(models)
		m.picker.active = true
		m.picker.list.ResetSelected()
		m.picker.list.ResetFilter()
		m.layout()

	case "/bench":
		if m.current.Name == "" {
			m.addSystem("Pick a model first: /models")
			break
		}
		name := "tg128"
		if len(parts) > 1 {
			name = parts[1]
		}
		preset, err := bench.ResolvePreset(name)
		if err != nil {
			m.addError(err.Error())
			break
		}
		m.benching = true
		m.spinner.Spinner = BenchSpinner
		m.benchCh = m.deps.Runner.Run(m.ctx, m.current, preset)
		m.rebuildView()
		return m, waitBench(m.benchCh)

	case "/results":
		results := m.deps.Results.List()
		if len(results) > 5 {
			results = results[:5]
		}
		m.addSystem(formatResults(results))

	case "/storage":
		m.addSystem(formatHeadroom(m.current, m.storageStatus, m.memoryStatus))

	case "/compact":
		if m.session == nil {
			break
		}
		before := m.session.EstimatedTokens()
		m.session.Compact()
		m.addSystem(fmt.Sprintf("Compacted: ~%d -> ~%d tokens", before, m.session.EstimatedTokens()))

	case "/clear":
		if m.session != nil {
			m.session.Clear()
		}
		m.messages = nil
		m.addSystem("Conversation cleared.")

	case "/save":
		if m.session == nil {
			m.addSystem("Nothing to save yet.")
			break
		}
		path := "alacrity-chat.md"
		if len(parts) > 1 {
			path = parts[1]
		}
		if err := m.session.Export(path); err != nil {
			m.addError(err.Error())
		} else {
			m.addSystem("Saved to " + path)
		}

	case "/resume":
		info, ok := chat.Latest(m.deps.SessionDir)
		if !ok {
			m.addSystem("Nothing to resume yet.")
			break
		}
		s, err := chat.LoadSession(info.Path)
		if err != nil {
			m.addError(err.Error())
			break
		}
		var cmd tea.Cmd
		if m.current.Name != info.Model {
			mdl, err := m.deps.Store.Resolve(m.ctx, info.Model)
			if err != nil {
				m.addError(fmt.Sprintf("Session model %s is gone: %s", info.Model, err))
				break
			}
			cmd = m.selectModel(mdl)
		}
		if m.deps.ChatTokens > 0 {
			s.SetMaxTokens(m.deps.ChatTokens)
		}
		m.session = s
		m.messages = nil
		for _, msg := range s.Messages() {
			switch msg.Role {
			case engine.RoleUser:
				m.messages = append(m.messages, chatMessage{role: "user", content: msg.Content})
			case engine.RoleAssistant:
				m.messages = append(m.messages, chatMessage{role: "model", content: msg.Content})
			}
		}
		m.addSystem(fmt.Sprintf("Resumed session with %s (%d turns)", info.Model, info.Turns))
		m.rebuildView()
		return m, cmd

	case "/quit":
		m.saveSession()
		m.cancel()
		return m, tea.Quit

	default:
		m.addError(fmt.Sprintf("Unknown command: %s (type /help)", parts[0]))
	}

	m.rebuildView()
	return m, nil
}

// selectModel switches the active model. The storage and memory monitors
// drop their previous watch and start over for the new model.
func (m *Model) selectModel(mdl model.Model) tea.Cmd {
	m.current = mdl
	m.session = chat.NewSession(m.deps.SessionDir, mdl.Name)
	if m.deps.ChatTokens > 0 {
		m.session.SetMaxTokens(m.deps.ChatTokens)
	}
	if m.deps.ChatSystem != "" {
		m.session.SetSystem(m.deps.ChatSystem)
	}
	m.storageStatus = storage.Status{IsOk: true}
	m.memoryStatus = storage.Status{IsOk: true}
	m.storageCh = m.deps.Storage.Observe(m.ctx, mdl, m.deps.StorageOpts)
	m.memoryCh = m.deps.Memory.Observe(m.ctx, mdl, m.deps.MemoryOpts)
	m.addSystem("Now talking to " + mdl.DisplayName())
	m.rebuildView()
	return tea.Batch(
		waitStatus(srcStorage, m.storageCh),
		waitStatus(srcMemory, m.memoryCh),
	)
}

// startDownload fetches a model that is not on disk yet, then switches to it.
// The downloader's space guard may refuse before any bytes move.
func (m *Model) startDownload(sel model.Model) tea.Cmd {
	if m.deps.Downloader == nil {
		m.addError("Downloads are not configured.")
		m.rebuildView()
		return nil
	}
	progCh := make(chan model.Progress, 8)
	doneCh := make(chan downloadDoneMsg, 1)
	m.downloading = true
	m.dlTarget = sel.DisplayName()
	m.dlPercent = 0
	m.dlProgCh = progCh
	m.dlDoneCh = doneCh

	ctx, dl := m.ctx, m.deps.Downloader
	go func() {
		got, err := dl.Download(ctx, sel, func(p model.Progress) {
			select {
			case progCh <- p:
			default: // UI is behind, drop the tick
			}
		})
		doneCh <- downloadDoneMsg{mdl: got, err: err}
		close(progCh)
	}()

	m.addSystem(fmt.Sprintf("Downloading %s (%s)...", sel.DisplayName(), humanBytes(sel.SizeBytes)))
	m.rebuildView()
	return tea.Batch(waitDownloadProgress(progCh), waitDownloadDone(doneCh))
}

// interrupt cancels in-flight work but keeps the conversation. The monitors
// ran under the cancelled context, so they are restarted on the new one.
func (m *Model) interrupt() tea.Cmd {
	m.cancel()
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.thinking = false
	m.benching = false
	m.downloading = false
	m.addSystem("Operation cancelled.")
	defer m.rebuildView()

	if m.current.Name == "" {
		return nil
	}
	m.storageCh = m.deps.Storage.Observe(m.ctx, m.current, m.deps.StorageOpts)
	m.memoryCh = m.deps.Memory.Observe(m.ctx, m.current, m.deps.MemoryOpts)
	return tea.Batch(
		waitStatus(srcStorage, m.storageCh),
		waitStatus(srcMemory, m.memoryCh),
	)
}

func (m *Model) saveSession() {
	if m.session != nil && m.session.Len() > 0 {
		m.session.Save()
	}
}

func (m *Model) addSystem(text string) {
	m.messages = append(m.messages, chatMessage{role: "system", content: text})
}

func (m *Model) addError(text string) {
	m.messages = append(m.messages, chatMessage{role: "error", content: text})
}

func (m *Model) appendBenchLine(line string) {
	if len(m.messages) > 0 && m.messages[len(m.messages)-1].role == "bench" {
		m.messages[len(m.messages)-1].content += "\n" + line
		return
	}
	m.messages = append(m.messages, chatMessage{role: "bench", content: line})
}

// replaceBenchLine rewrites the last line of the bench block, so
// "rep 1/3..." becomes "rep 1/3: pp ... tg ...".
func (m *Model) replaceBenchLine(line string) {
	if len(m.messages) == 0 || m.messages[len(m.messages)-1].role != "bench" {
		m.appendBenchLine(line)
		return
	}
	content := m.messages[len(m.messages)-1].content
	if i := strings.LastIndex(content, "\n"); i >= 0 {
		m.messages[len(m.messages)-1].content = content[:i+1] + line
	} else {
		m.messages[len(m.messages)-1].content = line
	}
}

func (m *Model) layout() {
	headerH := 10
	inputH := 3
	popupH := 0
	if m.menu.active || m.picker.active {
		popupH = 16
	}
	m.viewport.Width = m.width - 4
	m.viewport.Height = m.height - headerH - inputH - popupH
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.textarea.SetWidth(m.width - 6)
}

func waitChunk(ch <-chan engine.Chunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-ch
		if !ok {
			return chunkMsg(engine.Chunk{Done: true})
		}
		return chunkMsg(chunk)
	}
}

func waitBench(ch <-chan bench.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return benchEventMsg(bench.Event{Type: bench.EventDone})
		}
		return benchEventMsg(ev)
	}
}

func waitStatus(src statusSource, ch <-chan storage.Status) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		return statusMsg{src: src, st: st, ok: ok}
	}
}

func waitCatalog(ch <-chan model.WatchEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		return catalogChangedMsg{ev: ev, ok: ok}
	}
}

func waitDownloadProgress(ch <-chan model.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return downloadProgressMsg(p)
	}
}

func waitDownloadDone(ch <-chan downloadDoneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// mergePresets appends catalog presets not already present on disk, so the
// picker always offers something to download.
func mergePresets(models []model.Model, presets []model.Model) []model.Model {
	have := make(map[string]bool, len(models))
	for _, m := range models {
		have[m.Name] = true
	}
	for _, p := range presets {
		if !have[p.Name] {
			models = append(models, p)
		}
	}
	return models
}

func (m *Model) rebuildView() {
	var sb strings.Builder

	for _, msg := range m.messages {
		switch msg.role {
		case "welcome":
			sb.WriteString(m.renderModelBlock("alacrity", msg.content, true))
		case "user":
			sb.WriteString(m.renderUserBlock(msg.content))
		case "model":
			sb.WriteString(m.renderModelBlock(m.current.DisplayName(), msg.content, false))
		case "bench":
			sb.WriteString(BenchLabelStyle.Render("  BENCH") + "\n")
			for _, line := range strings.Split(msg.content, "\n") {
				sb.WriteString(BenchLineStyle.Render("  "+line) + "\n")
			}
			sb.WriteString("\n")
		case "system":
			sb.WriteString(SystemMsgStyle.Render("  ℹ "+msg.content) + "\n\n")
		case "error":
			sb.WriteString(ErrorStyle.Render("  ✗ "+msg.content) + "\n\n")
		}
	}

	if m.downloading {
		sb.WriteString(fmt.Sprintf("  %s %s %.0f%%\n",
			SystemMsgStyle.Render("⇣ "+m.dlTarget), m.dlBar.ViewAs(m.dlPercent/100), m.dlPercent))
	}

	if m.thinking || m.benching {
		status := "Thinking..."
		if m.benching {
			status = "Benchmarking..."
		}
		sb.WriteString(SpinnerStyle.Render(fmt.Sprintf(" %s %s", m.spinner.View(), status)) + "\n")
	}

	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(sb.String())
	if wasAtBottom || len(m.messages) <= 1 {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderUserBlock(content string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		UserLabelStyle.Render("  YOU"),
		UserMsgStyle.Render("  "+content),
	) + "\n\n"
}

func (m *Model) renderModelBlock(title, content string, plain bool) string {
	body := content
	if !plain && m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		ModelLabelStyle.Render("  "+strings.ToUpper(title)),
		ModelMsgStyle.Render(body),
	) + "\n\n"
}

func (m Model) View() string {
	title := BannerStyle.Render(Banner)

	modelName := "no model"
	if m.current.Name != "" {
		modelName = m.current.DisplayName()
	}
	statusCells := []string{
		StatusModelStyle.Render(modelName),
		StatusBarStyle.Render(m.deps.Engine.Name()),
	}
	if !m.storageStatus.IsOk {
		statusCells = append(statusCells, WarningStyle.Render(" ▲ "+m.storageStatus.Message))
	}
	if !m.memoryStatus.IsOk {
		statusCells = append(statusCells, WarningStyle.Render(" ▲ "+m.memoryStatus.Message))
	}
	statusBar := lipgloss.JoinHorizontal(lipgloss.Top, statusCells...)

	header := lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.NewStyle().PaddingLeft(2).Render(statusBar),
		SeparatorStyle.Render(strings.Repeat("─", max(m.width, 20))),
	)

	prompt := lipgloss.NewStyle().Foreground(Green).Bold(true).Render("> ")
	if m.thinking || m.benching || m.downloading {
		prompt = lipgloss.NewStyle().Foreground(Amber).Bold(true).Render("● ")
	}
	inputBox := InputBoxStyle.
		Width(max(m.width-4, 20)).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, prompt, m.textarea.View()))

	help := HelpStyle.Render("Enter: send  •  /: commands  •  Ctrl+C: cancel/quit")

	mainView := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		inputBox,
		lipgloss.NewStyle().PaddingLeft(2).Render(help),
	)

	if m.menu.active {
		return lipgloss.JoinVertical(lipgloss.Left, mainView, m.menu.View())
	}
	if m.picker.active {
		return lipgloss.JoinVertical(lipgloss.Left, mainView, m.picker.View())
	}
	return mainView
}
