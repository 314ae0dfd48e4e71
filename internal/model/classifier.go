package model

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/paletteml/artstyle-api/internal/metrics"
)

// inferenceSession is the minimal surface the classifier needs from the
// runtime. Stubbed in tests so nothing there depends on the onnxruntime
// shared library.
type inferenceSession interface {
	run(input []float32) ([]float32, error)
	destroy()
}

type sessionFactory func(modelPath, libPath string, numClasses int) (inferenceSession, error)

// Classifier wraps a single loaded network and scores preprocessed tensors
// against the style labels. The session is created lazily: the first Predict
// provisions the artifact and loads it exactly once, concurrent first
// callers wait for that attempt, and its outcome (success or failure) holds
// for the rest of the process lifetime.
type Classifier struct {
	prov    *Provisioner
	labels  *LabelMap
	libPath string

	newSession sessionFactory

	once    sync.Once
	loadErr error
	session inferenceSession
}

// NewClassifier wires a classifier to its provisioner and label map.
// onnxLibPath optionally points at the onnxruntime shared library; empty
// means the runtime's default lookup.
func NewClassifier(prov *Provisioner, labels *LabelMap, onnxLibPath string) *Classifier {
	return &Classifier{
		prov:       prov,
		labels:     labels,
		libPath:    onnxLibPath,
		newSession: newOrtSession,
	}
}

// Labels returns the label map the classifier scores against.
func (c *Classifier) Labels() *LabelMap {
	return c.labels
}

// Predict runs one forward pass and returns the softmax probability
// distribution over all labels. Safe for concurrent use; the loaded weights
// are never mutated.
func (c *Classifier) Predict(tensor []float32) ([]float64, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotLoaded, err)
	}

	want := 3 * imageSize * imageSize
	if len(tensor) != want {
		return nil, fmt.Errorf("input tensor has %d values, want %d", len(tensor), want)
	}

	start := time.Now()
	logits, err := c.session.run(tensor)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())

	return softmax(logits), nil
}

// Close releases the loaded session, if any.
func (c *Classifier) Close() {
	if c.session != nil {
		c.session.destroy()
		c.session = nil
	}
}

func (c *Classifier) ensureLoaded() error {
	c.once.Do(func() {
		c.loadErr = c.load()
		if c.loadErr != nil {
			log.Error().Err(c.loadErr).Msg("Classifier load failed")
		} else {
			log.Info().Str("path", c.prov.Path()).Int("classes", c.labels.Count()).
				Msg("Classifier ready")
		}
	})
	return c.loadErr
}

func (c *Classifier) load() error {
	if err := c.prov.EnsureReady(); err != nil {
		return err
	}

	sess, err := c.newSession(c.prov.Path(), c.libPath, c.labels.Count())
	if err != nil {
		return err
	}

	// Warm-up pass. The output tensor is bound to [1, len(labels)], so a
	// model trained for a different class count fails here, at load, rather
	// than on the first real request.
	if _, err := sess.run(make([]float32, 3*imageSize*imageSize)); err != nil {
		sess.destroy()
		return fmt.Errorf("model rejected warm-up input (label count mismatch or broken artifact): %w", err)
	}

	c.session = sess
	return nil
}

// softmax converts raw logits to a probability distribution, in float64 with
// max subtraction so large-magnitude logits stay finite.
func softmax(logits []float32) []float64 {
	probs := make([]float64, len(logits))
	if len(logits) == 0 {
		return probs
	}

	maxLogit := float64(logits[0])
	for _, v := range logits[1:] {
		if float64(v) > maxLogit {
			maxLogit = float64(v)
		}
	}

	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v) - maxLogit)
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// initOrtEnvironment initializes the process-wide ONNX runtime environment
// exactly once.
func initOrtEnvironment(libPath string) error {
	ortEnvOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// ortSession owns the ONNX session plus its preallocated input and output
// tensors. The tensors are shared across requests, so run serializes
// copy-in / forward pass / copy-out under a mutex.
type ortSession struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

func newOrtSession(modelPath, libPath string, numClasses int) (inferenceSession, error) {
	if err := initOrtEnvironment(libPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(1, 3, imageSize, imageSize)
	outputShape := ort.NewShape(1, int64(numClasses))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ortSession{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *ortSession) run(input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), input)
	if err := s.session.Run(); err != nil {
		return nil, err
	}

	out := s.outputTensor.GetData()
	logits := make([]float32, len(out))
	copy(logits, out)
	return logits, nil
}

func (s *ortSession) destroy() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}
