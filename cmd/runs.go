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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/gofsi/output/store"
)

// RunsCmd lists the runs recorded by FSI --db
var RunsCmd = &cobra.Command{
	Use:   "runs <db file>",
	Short: "List the runs recorded in a trajectory database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := ListRuns(os.Stdout, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	},
}

func ListRuns(w io.Writer, dbFile string) (err error) {
	if _, err = os.Stat(dbFile); err != nil {
		return
	}
	var st *store.Store
	if st, err = store.Open(dbFile); err != nil {
		return
	}
	defer st.Close()
	var runs []store.Run
	if runs, err = st.Runs(); err != nil {
		return
	}
	for _, r := range runs {
		snaps, err := st.Snapshots(r.ID)
		if err != nil {
			return err
		}
		var tEnd float64
		if len(snaps) != 0 {
			tEnd = snaps[len(snaps)-1].Time
		}
		fmt.Fprintf(w, "%s  %-24q %s  dofs = %d, snapshots = %d, t = %8.5f\n",
			r.ID, r.Title, r.CreatedAt.Format("2006-01-02 15:04:05"), r.NumDofs, len(snaps), tEnd)
	}
	return
}

func init() {
	rootCmd.AddCommand(RunsCmd)
}
