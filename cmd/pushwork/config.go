package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkandswitch/pushwork/pkg/config"
	"github.com/inkandswitch/pushwork/pkg/filesystem"
)

func configGetMain(command *cobra.Command, arguments []string) error {
	root, err := openSyncRoot(".")
	if err != nil {
		return err
	}
	defer root.Close()

	if len(arguments) == 0 {
		printConfig(root.Cfg)
		return nil
	}
	value, err := getConfigKey(root.Cfg, arguments[0])
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	fmt.Println(value)
	return nil
}

func configSetMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return withExitCode(exitGeneral, fmt.Errorf("config set requires a key and a value"))
	}
	root, err := openSyncRoot(".")
	if err != nil {
		return err
	}
	defer root.Close()

	if err := setConfigKey(root.Cfg, arguments[0], arguments[1]); err != nil {
		return withExitCode(exitGeneral, err)
	}
	if err := root.Cfg.Validate(); err != nil {
		return withExitCode(exitConfig, err)
	}

	configPath, err := filesystem.ControlSubpath(root.Path, true, filesystem.ConfigurationFileName)
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	if err := config.Save(configPath, root.Cfg); err != nil {
		return withExitCode(exitConfig, err)
	}
	return nil
}

func printConfig(cfg *config.Config) {
	fmt.Printf("parallelism: %d\n", cfg.Parallelism)
	fmt.Printf("move.auto: %v\n", cfg.Move.Auto)
	fmt.Printf("move.prompt: %v\n", cfg.Move.Prompt)
	fmt.Printf("exclude: %s\n", strings.Join(cfg.Exclude, ", "))
	fmt.Printf("artifactDirectories: %s\n", strings.Join(cfg.ArtifactDirectories, ", "))
}

func getConfigKey(cfg *config.Config, key string) (string, error) {
	switch key {
	case "parallelism":
		return strconv.Itoa(cfg.Parallelism), nil
	case "move.auto":
		return strconv.FormatFloat(cfg.Move.Auto, 'f', -1, 64), nil
	case "move.prompt":
		return strconv.FormatFloat(cfg.Move.Prompt, 'f', -1, 64), nil
	case "exclude":
		return strings.Join(cfg.Exclude, ","), nil
	case "artifactDirectories":
		return strings.Join(cfg.ArtifactDirectories, ","), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

func setConfigKey(cfg *config.Config, key, value string) error {
	switch key {
	case "parallelism":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parallelism must be an integer: %w", err)
		}
		cfg.Parallelism = n
	case "move.auto":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("move.auto must be a number: %w", err)
		}
		cfg.Move.Auto = f
	case "move.prompt":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("move.prompt must be a number: %w", err)
		}
		cfg.Move.Prompt = f
	case "exclude":
		cfg.Exclude = splitNonEmpty(value)
	case "artifactDirectories":
		cfg.ArtifactDirectories = splitNonEmpty(value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func splitNonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

var configGetCommand = &cobra.Command{
	Use:   "get [<key>]",
	Short: "Print one configuration value, or the whole configuration if no key is given",
	Run:   mainify(configGetMain),
}

var configSetCommand = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration value",
	Run:   mainify(configSetMain),
}

var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Inspect or adjust this sync root's configuration",
}

func init() {
	configCommand.AddCommand(configGetCommand, configSetCommand)
}
