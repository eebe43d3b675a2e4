package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asmkit/asmvm/cpu"
	"github.com/asmkit/asmvm/emulator"
)

var (
	flagVerbose  bool
	flagMemSize  int
	flagMaxSteps int
)

func main() {
	root := &cobra.Command{
		Use:           "asmvm",
		Short:         "Assemble and run programs on the asmvm virtual CPU",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().IntVarP(&flagMemSize, "mem", "m", cpu.DEFAULT_MEM_SIZE, "memory size in bytes")

	runCmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Assemble FILE and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  doRun,
	}
	runCmd.Flags().IntVarP(&flagMaxSteps, "max-steps", "s", emulator.DEFAULT_MAX_STEPS, "step ceiling")

	dbgCmd := &cobra.Command{
		Use:   "dbg FILE",
		Short: "Assemble FILE and debug it interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  doDbg,
	}

	root.AddCommand(runCmd, dbgCmd)

	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newEmulator assembles a source file and loads it into a fresh emulator.
func newEmulator(path string) (emu *emulator.Emulator, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	emu = emulator.New(flagMemSize)
	emu.Verbose = flagVerbose
	emu.Output = os.Stdout

	prog, err := emu.Assemble(inf)
	if err != nil {
		return
	}

	err = emu.Load(prog)
	return
}

func doRun(cmd *cobra.Command, args []string) (err error) {
	emu, err := newEmulator(args[0])
	if err != nil {
		return
	}

	res, err := emu.Run(emulator.RunOptions{MaxSteps: flagMaxSteps})
	if err != nil {
		return
	}
	if !res.Halted {
		err = fmt.Errorf("step ceiling reached after %d steps", res.Steps)
		return
	}

	if flagVerbose {
		fmt.Fprintf(os.Stderr, "halted after %d steps, exit %d\n", res.Steps, emu.Cpu.Exit)
	}
	if emu.Cpu.Exit != 0 {
		os.Exit(int(emu.Cpu.Exit))
	}
	return
}
