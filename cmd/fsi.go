/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gofsi/InputParameters"
	"github.com/notargets/gofsi/model_problems/FSI2D"
)

type ModelFSI struct {
	ICFile         string
	VTKDir         string
	DBFile         string
	Profile        bool
	PerfCounters   bool
	ParallelDegree int
	Quiet          bool
}

const exampleFile = `
########################################
Title: "Disc in channel"
Es: 1000.
NuS: 0.3
RhoS: 10.
RhoF: 1.
MuF: 0.01
Em: 1.
NuM: 0.2
Nm: 16
Domain: [-1, 1, -1, 1]
Radius: 0.5
Center: [0, 0]
T0: 0.
Tf: 1.
Dt: 0.01
MeshStrategy: LinearElasticity # Can be "Laplacian"
InflowVelocity: 1.
RampTime: 0.2
########################################
`

// FSICmd represents the FSI command
var FSICmd = &cobra.Command{
	Use:   "FSI",
	Short: "Coupled fluid structure solver for a disc held in a channel flow",
	Long: `
Partitions a Cartesian mesh by a disc, solves the steady fluid problem to start
and integrates the coupled problem to the final time,

gofsi FSI -I input.yaml --vtkDir out --db fsi.db`,
	Run: func(cmd *cobra.Command, args []string) {
		mfsi := &ModelFSI{
			ICFile:         viper.GetString("inputConditionsFile"),
			VTKDir:         viper.GetString("vtkDir"),
			DBFile:         viper.GetString("db"),
			Profile:        viper.GetBool("profile"),
			PerfCounters:   viper.GetBool("perfCounters"),
			ParallelDegree: viper.GetInt("parallelDegree"),
			Quiet:          viper.GetBool("quiet"),
		}
		ip, err := processInput(mfsi)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			if len(mfsi.ICFile) == 0 {
				fmt.Printf("Example File:%s\n", exampleFile)
			}
			os.Exit(1)
		}
		if err = RunFSI(mfsi, ip); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func processInput(mfsi *ModelFSI) (ip *InputParameters.InputParametersFSI, err error) {
	if len(mfsi.ICFile) == 0 {
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
	}
	var data []byte
	if data, err = os.ReadFile(mfsi.ICFile); err != nil {
		return nil, fmt.Errorf("reading input parameters: %w", err)
	}
	ip = &InputParameters.InputParametersFSI{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", mfsi.ICFile, err)
	}
	if mfsi.ParallelDegree > 0 {
		ip.ParallelDegree = mfsi.ParallelDegree
	}
	ip.SetDefaults()
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	return
}

func RunFSI(mfsi *ModelFSI, ip *InputParameters.InputParametersFSI) (err error) {
	if !mfsi.Quiet {
		ip.Print()
	}
	if mfsi.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}
	run := func() error {
		c, err := FSI2D.NewFSI(ip, FSI2D.Options{
			VTKDir: mfsi.VTKDir,
			DBFile: mfsi.DBFile,
			Quiet:  mfsi.Quiet,
		})
		if err != nil {
			return err
		}
		_, err = c.Run()
		return err
	}
	if mfsi.PerfCounters {
		var instructions uint64
		if instructions, err = countInstructions(run); err != nil {
			return
		}
		fmt.Printf("CPU instructions: %d\n", instructions)
		return
	}
	return run()
}

func init() {
	rootCmd.AddCommand(FSICmd)
	flags := FSICmd.Flags()
	flags.StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- material constants\n\t- Nm, Radius (mesh and disc)\n\t- Tf, Dt (time stepping)")
	flags.String("vtkDir", "", "write a .vtu file per time step and a .pvd collection in this directory")
	flags.String("db", "", "record the trajectory in this SQLite file")
	flags.Bool("profile", false, "write a CPU profile to the current directory")
	flags.Bool("perfCounters", false, "report the CPU instructions used by the run")
	flags.Int("parallelDegree", 0, "number of goroutines used in assembly, 0 uses all CPUs")
	flags.BoolP("quiet", "q", false, "suppress progress output")
	for _, name := range []string{"inputConditionsFile", "vtkDir", "db", "profile", "perfCounters", "parallelDegree", "quiet"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
