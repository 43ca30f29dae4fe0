package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"ghostwriter/app/internal/config"
	"ghostwriter/app/internal/llm"
	"ghostwriter/app/internal/output"
	"ghostwriter/app/internal/pipeline"
)

func silentPrinter() *output.Printer {
	return output.NewPrinter(output.PrinterOptions{Out: io.Discard, Err: io.Discard})
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func validConfig() *config.Config {
	return &config.Config{
		LLMProvider:     config.ProviderOpenAI,
		LLMModel:        "gpt-4-turbo-preview",
		OpenAIAPIKey:    "sk-test",
		Temperature:     0.7,
		TavilyAPIKey:    "tvly-test",
		GhostURL:        "https://blog.example.com",
		GhostAdminKey:   "abc123:68656c6c6f776f726c646b6579",
		MinQualityScore: 70,
	}
}

func TestResolveTopicJoinsArguments(t *testing.T) {
	t.Parallel()

	topic, err := resolveTopic([]string{"deep", "work", "habits"}, strings.NewReader(""), silentPrinter())
	if err != nil {
		t.Fatalf("resolveTopic: %v", err)
	}
	if topic != "deep work habits" {
		t.Fatalf("expected joined topic, got %q", topic)
	}
}

func TestResolveTopicPromptsWhenNoArguments(t *testing.T) {
	t.Parallel()

	topic, err := resolveTopic(nil, strings.NewReader("  urban beekeeping \n"), silentPrinter())
	if err != nil {
		t.Fatalf("resolveTopic: %v", err)
	}
	if topic != "urban beekeeping" {
		t.Fatalf("expected trimmed prompted topic, got %q", topic)
	}
}

func TestResolveTopicRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   \n"} {
		if _, err := resolveTopic(nil, strings.NewReader(input), silentPrinter()); !eris.Is(err, pipeline.ErrConfiguration) {
			t.Errorf("input %q: expected ErrConfiguration, got %v", input, err)
		}
	}
}

func TestProviderOverrideRederivesDefaultModel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AnthropicAPIKey = "sk-ant-test"

	cfg.ApplyProvider("anthropic")

	completer, err := llm.NewCompleter(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}
	if model := completer.Model(); strings.Contains(model, "gpt") {
		t.Fatalf("anthropic completer kept the openai default model %q", model)
	}

	cfg.ApplyProvider("openai")
	completer, err = llm.NewCompleter(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}
	if model := completer.Model(); strings.Contains(model, "claude") {
		t.Fatalf("openai completer kept the anthropic default model %q", model)
	}
}

func TestProviderOverridePreservesExplicitModel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AnthropicAPIKey = "sk-ant-test"

	cfg.ApplyProvider("anthropic")
	cfg.LLMModel = "claude-3-opus-20240229"

	completer, err := llm.NewCompleter(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}
	if model := completer.Model(); model != "claude-3-opus-20240229" {
		t.Fatalf("expected explicit model to survive, got %q", model)
	}
}

func TestBuildPipelineConstructsEachVariant(t *testing.T) {
	t.Parallel()

	for _, variant := range []string{pipeline.VariantSequential, pipeline.VariantAgent, pipeline.VariantCrew} {
		p, observer, err := buildPipeline(validConfig(), discardLogger(), pipelineSettings{
			Variant:  variant,
			Status:   "published",
			Evaluate: true,
			Observe:  true,
			MinScore: 70,
		})
		if err != nil {
			t.Fatalf("variant %s: %v", variant, err)
		}
		if p == nil {
			t.Fatalf("variant %s: expected pipeline", variant)
		}
		if observer == nil {
			t.Fatalf("variant %s: expected observer when observability enabled", variant)
		}
	}
}

func TestBuildPipelineSkipsObserverWhenDisabled(t *testing.T) {
	t.Parallel()

	_, observer, err := buildPipeline(validConfig(), discardLogger(), pipelineSettings{
		Variant:  pipeline.VariantSequential,
		Status:   "published",
		MinScore: 70,
	})
	if err != nil {
		t.Fatalf("buildPipeline: %v", err)
	}
	if observer != nil {
		t.Fatal("expected no observer when observability disabled")
	}
}

func TestBuildPipelineRejectsIncompleteConfig(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.TavilyAPIKey = ""

	_, _, err := buildPipeline(cfg, discardLogger(), pipelineSettings{
		Variant:  pipeline.VariantSequential,
		Status:   "published",
		MinScore: 70,
	})
	if !eris.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuildPipelineRejectsUnknownVariant(t *testing.T) {
	t.Parallel()

	_, _, err := buildPipeline(validConfig(), discardLogger(), pipelineSettings{
		Variant:  "parallel",
		Status:   "published",
		MinScore: 70,
	})
	if !eris.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestScoreCommandEvaluatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.html")
	content := "<h2>Focus</h2><p>" + strings.Repeat("Deep work rewards sustained attention. ", 40) + "</p>"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing draft: %v", err)
	}

	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		quiet = false
	})

	rootCmd.SetArgs([]string{"score", path, "--quiet", "--title", "A Field Guide to Deep Work and Focus", "--tags", "focus,habits,productivity"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("score command: %v", err)
	}
}

func TestScoreCommandFailsOnMissingFile(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"score", filepath.Join(t.TempDir(), "missing.html")})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command: %v", err)
	}
	if !strings.Contains(out.String(), "ghostwriter 1.2.3") {
		t.Fatalf("expected version line, got %q", out.String())
	}
}
