package cmd

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/scanner"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/ui"
)

var (
	allPorts  bool
	forceKill bool
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List processes on the dev ports",
	Long: `Lists processes listening on the EVM RPC and replica ports. With a
terminal attached this opens an interactive picker where enter kills the
selected process; otherwise it prints a table. Use --all to include every
listening port on the machine.`,
	RunE: runPorts,
}

var portsKillCmd = &cobra.Command{
	Use:   "kill <port>",
	Short: "Kill process listening on a port",
	Long:  `Kill the process that is listening on the specified port. Uses SIGTERM by default, SIGKILL with --force.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPortsKill,
}

func init() {
	portsCmd.Flags().BoolVar(&allPorts, "all", false, "Show every listening port, not just the dev ports")
	portsCmd.Flags().BoolVarP(&forceKill, "force", "f", false, "Force kill with SIGKILL")
	portsKillCmd.Flags().BoolVarP(&forceKill, "force", "f", false, "Force kill with SIGKILL")
	portsCmd.AddCommand(portsKillCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s := scanner.New()
	listeners, err := s.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan ports: %w", err)
	}
	if !allPorts {
		listeners = onDevPorts(listeners, cfg.EVM.RPCPort, cfg.Replica.Port)
	}

	if len(listeners) == 0 {
		if jsonOutput {
			fmt.Println("[]")
		} else {
			fmt.Println("No listening ports found.")
		}
		return nil
	}

	if jsonOutput {
		return printJSON(listeners)
	}
	if interactive() {
		return pickAndKill(s, listeners)
	}
	return printListenerTable(listeners)
}

func onDevPorts(listeners []scanner.Listener, ports ...int) []scanner.Listener {
	var kept []scanner.Listener
	for _, l := range listeners {
		for _, p := range ports {
			if l.Port == p {
				kept = append(kept, l)
				break
			}
		}
	}
	return kept
}

func pickAndKill(s scanner.Scanner, listeners []scanner.Listener) error {
	final, err := tea.NewProgram(ui.NewPicker(listeners)).Run()
	if err != nil {
		return fmt.Errorf("picker failed: %w", err)
	}

	picker, ok := final.(ui.Picker)
	if !ok {
		return nil
	}
	target, chosen := picker.Choice()
	if !chosen {
		return nil
	}

	return killListener(s, target)
}

func runPortsKill(cmd *cobra.Command, args []string) error {
	port, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid port number: %s", args[0])
	}

	s := scanner.New()
	listeners, err := scanner.ListenersOn(s, port)
	if err != nil {
		return fmt.Errorf("failed to scan ports: %w", err)
	}
	if len(listeners) == 0 {
		return fmt.Errorf("no process found listening on port %d", port)
	}

	for _, target := range listeners {
		if err := killListener(s, target); err != nil {
			return err
		}
	}
	return nil
}

func killListener(s scanner.Scanner, target scanner.Listener) error {
	if err := s.Kill(target.PID, forceKill); err != nil {
		return fmt.Errorf("failed to kill process %d: %w", target.PID, err)
	}

	action := "Killed"
	if forceKill {
		action = "Force killed"
	}
	fmt.Printf("%s %s (PID %d) on port %d\n", action, target.Process, target.PID, target.Port)

	if label, risky := scanner.RespawnRisk(target.Process); risky {
		fmt.Printf("Warning: %s is managed by launchd job %s and may restart\n", target.Process, label)
	}
	return nil
}
