package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
	"github.com/bibbank/creditrisk/internal/infrastructure/onnx"
	"github.com/bibbank/creditrisk/internal/infrastructure/preprocessing"
	"github.com/bibbank/creditrisk/internal/infrastructure/xgboost"
)

// Default artifact file names inside the model directory.
const (
	DefaultPreprocessorFile = "preprocessor.json"
	DefaultModelFile        = "final_xgb_model.json"
	DefaultONNXModelFile    = "final_xgb_model.onnx"
	SchemaFile              = "input_schema.json"
)

// Classifier kinds.
const (
	KindXGBoost = "xgboost-json"
	KindONNX    = "onnx"
)

// Config locates the artifacts.
type Config struct {
	Dir              string
	PreprocessorFile string
	// ModelFile selects the classifier. When empty, DefaultModelFile is used
	// if present, then DefaultONNXModelFile.
	ModelFile      string
	ONNXRuntimeLib string
	// ForceWrapper hides the booster of tree models so every request takes
	// the wrapper path.
	ForceWrapper bool
}

// FileStatus reports one expected artifact file.
type FileStatus struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Size   int64  `json:"size" yaml:"size"`
	Exists bool   `json:"exists" yaml:"exists"`
}

// Store reads the preprocessor and classifier from a directory.
type Store struct {
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
	closers []io.Closer
}

// NewStore creates a Store.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if cfg.PreprocessorFile == "" {
		cfg.PreprocessorFile = DefaultPreprocessorFile
	}
	return &Store{cfg: cfg, logger: logger, now: time.Now}
}

func (s *Store) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.cfg.Dir, name)
}

func (s *Store) modelFile() string {
	if s.cfg.ModelFile != "" {
		return s.cfg.ModelFile
	}
	if _, err := os.Stat(s.path(DefaultModelFile)); err != nil {
		if _, onnxErr := os.Stat(s.path(DefaultONNXModelFile)); onnxErr == nil {
			return DefaultONNXModelFile
		}
	}
	return DefaultModelFile
}

// Check verifies both artifact files exist. The statuses are returned even
// when the error is non-nil.
func (s *Store) Check() ([]FileStatus, error) {
	var (
		statuses []FileStatus
		errs     []error
	)
	for _, name := range []string{s.cfg.PreprocessorFile, s.modelFile()} {
		st := FileStatus{Name: name, Path: s.path(name)}
		info, err := os.Stat(st.Path)
		switch {
		case err == nil && info.IsDir():
			errs = append(errs, fmt.Errorf("%s is a directory", st.Path))
		case err == nil:
			st.Exists = true
			st.Size = info.Size()
		default:
			errs = append(errs, fmt.Errorf("missing artifact %s: %w", st.Path, err))
		}
		statuses = append(statuses, st)
	}
	return statuses, errors.Join(errs...)
}

type loaded struct {
	preprocessor *preprocessing.ColumnTransformer
	classifier   port.Classifier
	tree         *xgboost.Model
	graph        *onnx.Classifier
	schema       *InputSchema
	info         service.ArtifactInfo
}

// Load reads, adapts and validates both artifacts. The returned handle is
// immutable; Close releases any native resources behind it.
func (s *Store) Load(ctx context.Context) (*service.Artifacts, error) {
	l, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if l.graph != nil {
		s.closers = append(s.closers, l.graph)
	}
	return service.NewArtifacts(l.preprocessor, l.classifier, l.info)
}

func (s *Store) load(ctx context.Context) (*loaded, error) {
	if _, err := s.Check(); err != nil {
		return nil, err
	}

	l := &loaded{}
	l.info.PreprocessorPath = s.path(s.cfg.PreprocessorFile)
	l.info.ClassifierPath = s.path(s.modelFile())

	pre, err := preprocessing.LoadFile(l.info.PreprocessorPath)
	if err != nil {
		return nil, err
	}
	l.preprocessor = pre
	s.logger.InfoContext(ctx, "preprocessor loaded",
		slog.String("path", l.info.PreprocessorPath),
		slog.Int("output_width", pre.OutputWidth()),
	)

	schema, err := ReadSchema(s.path(SchemaFile))
	if err != nil {
		return nil, err
	}
	if schema != nil {
		if err := schema.Validate(pre.InputColumns()); err != nil {
			return nil, fmt.Errorf("%s: %w", SchemaFile, err)
		}
		l.schema = schema
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modelWidth := 0
	switch strings.ToLower(filepath.Ext(l.info.ClassifierPath)) {
	case ".onnx":
		graph, err := onnx.Load(l.info.ClassifierPath, onnx.Options{LibraryPath: s.cfg.ONNXRuntimeLib}, s.logger)
		if err != nil {
			return nil, err
		}
		l.graph, l.classifier = graph, graph
		l.info.ClassifierKind = KindONNX
		modelWidth = graph.Signature().NumFeature
	default:
		var opts []xgboost.Option
		if s.cfg.ForceWrapper {
			opts = append(opts, xgboost.WithoutBooster())
		}
		clf, err := xgboost.Load(l.info.ClassifierPath, s.logger, opts...)
		if err != nil {
			return nil, err
		}
		l.tree, l.classifier = clf.Model(), clf
		l.info.ClassifierKind = KindXGBoost
		modelWidth = clf.Model().NumFeature
		s.logger.InfoContext(ctx, "xgboost model loaded",
			slog.String("path", l.info.ClassifierPath),
			slog.String("format_version", clf.Model().Version.String()),
			slog.Int("trees", len(clf.Model().Trees)),
		)
	}

	// A stale pairing still loads; each request then fails at scoring.
	if modelWidth > 0 && modelWidth != pre.OutputWidth() {
		s.logger.WarnContext(ctx, "preprocessor and model disagree on feature count",
			slog.Int("preprocessor_width", pre.OutputWidth()),
			slog.Int("model_features", modelWidth),
		)
	}

	l.info.LoadedAt = s.now()
	return l, nil
}

// Close releases native sessions opened by Load.
func (s *Store) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}
