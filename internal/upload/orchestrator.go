// Package upload turns a selection of image files into one generation request
// and reports the request lifecycle through callbacks.
package upload

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lookbook-app/lookbook/internal/models"
	"github.com/lookbook-app/lookbook/internal/normalize"
	"github.com/lookbook-app/lookbook/internal/preview"
	"github.com/lookbook-app/lookbook/internal/session"
)

// FailureMessage is the only text users see for a failed generation
const FailureMessage = "Failed to generate items"

var (
	// ErrInFlight is returned when Generate is called while a request is running
	ErrInFlight = errors.New("a generation request is already in flight")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("orchestrator is closed")
)

// GenerateError hides transport and service details behind FailureMessage
type GenerateError struct {
	Err error
}

func (e *GenerateError) Error() string {
	return FailureMessage
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show for err
func UserMessage(err error) string {
	var genErr *GenerateError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &genErr):
		return FailureMessage
	case errors.Is(err, ErrInFlight):
		return "Generation already in progress"
	default:
		return err.Error()
	}
}

// Generator performs the upload. *recommend.Client implements it.
type Generator interface {
	Generate(ctx context.Context, token string, files []models.ImageFile) ([]byte, error)
}

// Previewer creates preview handles for selected files. *preview.Registry implements it.
type Previewer interface {
	Open(file models.ImageFile) (*preview.Handle, error)
}

// Callbacks observe the request lifecycle. Any of them may be nil.
// OnError(nil) clears a previously reported error. OnBatchComplete follows
// OnItemsReady and describes the batch that was uploaded, even if the
// selection changed while the request was running.
type Callbacks struct {
	OnLoadingChange func(loading bool)
	OnError         func(err error)
	OnItemsReady    func(items []models.Item)
	OnBatchComplete func(record models.BatchRecord)
}

// Batch is the pending selection and the outcome of generating it
type Batch struct {
	ID       string
	Files    []models.ImageFile
	previews []*preview.Handle
	err      error
	items    []models.Item
	dropped  int
}

func (b *Batch) release() {
	for _, p := range b.previews {
		p.Release()
	}
	b.previews = nil
}

// Snapshot is a copy of the observable state
type Snapshot struct {
	BatchID  string        `json:"batch_id,omitempty"`
	Files    []string      `json:"files"`
	Previews []string      `json:"previews"`
	Loading  bool          `json:"loading"`
	Error    string        `json:"error,omitempty"`
	Items    []models.Item `json:"items"`
	Dropped  int           `json:"dropped,omitempty"`
}

type Orchestrator struct {
	generator Generator
	sessions  session.Provider
	previewer Previewer
	callbacks Callbacks
	logger    *slog.Logger

	mu       sync.Mutex
	batch    *Batch
	inFlight bool
	cancel   context.CancelFunc
	closed   bool
}

type Option func(*Orchestrator)

func WithCallbacks(cb Callbacks) Option {
	return func(o *Orchestrator) {
		o.callbacks = cb
	}
}

func WithPreviewer(p Previewer) Option {
	return func(o *Orchestrator) {
		o.previewer = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

func New(generator Generator, sessions session.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator: generator,
		sessions:  sessions,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SelectFiles replaces the pending selection. Previews of the previous batch are released.
func (o *Orchestrator) SelectFiles(files []models.ImageFile) error {
	batch := &Batch{
		ID:    uuid.NewString(),
		Files: slices.Clone(files),
	}

	if o.previewer != nil {
		for _, f := range batch.Files {
			h, err := o.previewer.Open(f)
			if err != nil {
				batch.release()
				return err
			}
			batch.previews = append(batch.previews, h)
		}
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		batch.release()
		return ErrClosed
	}
	prev := o.batch
	o.batch = batch
	o.mu.Unlock()

	if prev != nil {
		prev.release()
	}
	o.logger.Debug("Files selected", "batch_id", batch.ID, "files", len(files))
	return nil
}

// Generate uploads the pending selection. It does nothing when the selection is
// empty and refuses to start a second request while one is running.
func (o *Orchestrator) Generate(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.batch == nil || len(o.batch.Files) == 0 {
		o.mu.Unlock()
		return nil
	}
	if o.inFlight {
		o.mu.Unlock()
		return ErrInFlight
	}
	batch := o.batch
	files := slices.Clone(batch.Files)
	names := fileNames(files)
	ctx, cancel := context.WithCancel(ctx)
	o.inFlight = true
	o.cancel = cancel
	batch.err = nil
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.inFlight = false
		o.cancel = nil
		o.mu.Unlock()
		o.emitLoading(false)
	}()

	o.emitLoading(true)
	o.emitError(nil)

	sess := o.sessions.GetSession(ctx)
	o.logger.Info("Generating items", "batch_id", batch.ID, "files", len(files), "guest", sess.Guest)

	items, dropped, err := o.request(ctx, sess.Token, files)
	if err != nil {
		if ctx.Err() != nil {
			o.logger.Info("Generation cancelled", "batch_id", batch.ID)
			return ctx.Err()
		}
		o.logger.Error("Failed to generate items", "batch_id", batch.ID, "err", err)
		genErr := &GenerateError{Err: err}
		o.mu.Lock()
		batch.err = genErr
		o.mu.Unlock()
		o.emitError(genErr)
		return genErr
	}
	if items == nil {
		o.logger.Info("Response had no items", "batch_id", batch.ID)
		return nil
	}

	o.mu.Lock()
	batch.items = items
	batch.dropped = dropped
	o.mu.Unlock()

	o.logger.Info("Items generated", "batch_id", batch.ID, "items", len(items), "dropped", dropped)
	o.emitItems(items)
	o.emitBatch(models.BatchRecord{
		ID:        batch.ID,
		Files:     names,
		Items:     items,
		Dropped:   dropped,
		CreatedAt: time.Now(),
	})
	return nil
}

func fileNames(files []models.ImageFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

// request returns nil items when the response carried no items field
func (o *Orchestrator) request(ctx context.Context, token string, files []models.ImageFile) ([]models.Item, int, error) {
	body, err := o.generator.Generate(ctx, token, files)
	if err != nil {
		return nil, 0, err
	}

	res, found, err := normalize.Bytes(body)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, nil
	}
	return res.Items, len(res.Dropped), nil
}

// Snapshot copies the current batch state
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		Files:    []string{},
		Previews: []string{},
		Items:    []models.Item{},
		Loading:  o.inFlight,
	}
	if o.batch == nil {
		return snap
	}

	snap.BatchID = o.batch.ID
	snap.Files = fileNames(o.batch.Files)
	for _, p := range o.batch.previews {
		snap.Previews = append(snap.Previews, p.URL)
	}
	if o.batch.err != nil {
		snap.Error = UserMessage(o.batch.err)
	}
	if o.batch.items != nil {
		snap.Items = slices.Clone(o.batch.items)
	}
	snap.Dropped = o.batch.dropped
	return snap
}

// Close cancels any in-flight request, releases previews and detaches callbacks
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	cancel := o.cancel
	batch := o.batch
	o.batch = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if batch != nil {
		batch.release()
	}
}

func (o *Orchestrator) attached() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.closed
}

func (o *Orchestrator) emitLoading(loading bool) {
	if o.callbacks.OnLoadingChange != nil && o.attached() {
		o.callbacks.OnLoadingChange(loading)
	}
}

func (o *Orchestrator) emitError(err error) {
	if o.callbacks.OnError != nil && o.attached() {
		o.callbacks.OnError(err)
	}
}

func (o *Orchestrator) emitItems(items []models.Item) {
	if o.callbacks.OnItemsReady != nil && o.attached() {
		o.callbacks.OnItemsReady(items)
	}
}

func (o *Orchestrator) emitBatch(record models.BatchRecord) {
	if o.callbacks.OnBatchComplete != nil && o.attached() {
		o.callbacks.OnBatchComplete(record)
	}
}
