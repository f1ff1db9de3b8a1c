package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mindscope/internal/ai"
	cfgpkg "github.com/KaramelBytes/mindscope/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Mindscope configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "api_key: %s\n", mask(c.APIKey))
		fmt.Fprintf(w, "gemini_api_key: %s\n", mask(c.GeminiAPIKey))
		fmt.Fprintf(w, "default_provider: %s\n", c.DefaultProvider)
		fmt.Fprintf(w, "default_model: %s\n", c.DefaultModel)
		if c.BaseURL != "" {
			fmt.Fprintf(w, "base_url: %s\n", c.BaseURL)
		}
		fmt.Fprintf(w, "max_tokens: %d\n", c.MaxTokens)
		fmt.Fprintf(w, "temperature: %.3f\n", c.Temperature)
		fmt.Fprintf(w, "ollama_host: %s\n", c.OllamaHost)
		fmt.Fprintf(w, "categorical_threshold: %.3f\n", c.CategoricalThreshold)
		fmt.Fprintf(w, "categorical_unique_limit: %d\n", c.CategoricalUniqueLimit)
		fmt.Fprintf(w, "date_like_threshold: %.3f\n", c.DateLikeThreshold)
		fmt.Fprintf(w, "sample_count: %d\n", c.SampleCount)
		fmt.Fprintf(w, "personas_dir: %s\n", c.PersonasDir)
		fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(w, "serve_addr: %s\n", c.ServeAddr)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "api_key":
		c.APIKey = val
	case "gemini_api_key":
		c.GeminiAPIKey = val
	case "default_model":
		c.DefaultModel = val
	case "default_provider":
		p := normalizeProvider(nil, val)
		known := false
		for _, name := range ai.Providers() {
			if name == p {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("invalid default_provider: %s (use %s)", val, strings.Join(ai.Providers(), ", "))
		}
		c.DefaultProvider = p
	case "base_url":
		c.BaseURL = val
	case "ollama_host":
		c.OllamaHost = val
	case "personas_dir":
		c.PersonasDir = val
	case "model_catalog":
		c.ModelCatalog = val
	case "log_level":
		c.LogLevel = val
	case "serve_addr":
		c.ServeAddr = val
	case "max_tokens", "categorical_unique_limit", "sample_count":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "max_tokens":
			c.MaxTokens = i
		case "categorical_unique_limit":
			c.CategoricalUniqueLimit = i
		default:
			c.SampleCount = i
		}
	case "temperature", "categorical_threshold", "date_like_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		switch key {
		case "temperature":
			c.Temperature = f
		case "categorical_threshold":
			c.CategoricalThreshold = f
		default:
			c.DateLikeThreshold = f
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
