package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nwnsc/internal/compiler"
	"nwnsc/internal/lexer"
	"nwnsc/internal/resource"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "list the engine-action prototypes loaded from nwscript.nss",
	Args:  cobra.NoArgs,
	RunE:  runActions,
}

func init() {
	f := actionsCmd.Flags()
	f.StringSliceP("include", "i", nil, "include directory, searched in order (repeatable)")
	f.String("install-dir", "", "engine installation directory, searched last")
	f.String("user-dir", "", "per-user override directory, searched before install-dir")
	f.String("prototypes", "nwscript", "resource name of the engine-action prototype source")
}

func runActions(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	includeDirs, _ := f.GetStringSlice("include")
	installDir, _ := f.GetString("install-dir")
	userDir, _ := f.GetString("user-dir")
	proto, _ := f.GetString("prototypes")

	loader := &resource.FSLoader{IncludeDirs: includeDirs, UserDir: userDir, InstallDir: installDir}
	c := compiler.New(compiler.Options{
		Loader:            loader,
		Version:           lexer.Version174,
		Extensions:        true,
		PrototypeResource: proto,
	})

	count := c.ActionCount()
	for i := 0; i < count; i++ {
		p, ok := c.GetActionPrototype(i)
		if !ok {
			continue
		}
		params := make([]string, 0, len(p.Params))
		for _, param := range p.Params {
			params = append(params, fmt.Sprintf("%s %s", param.Type, param.Name))
		}
		fmt.Printf("%4d  %s %s(%s)\n", i, p.Return.Type, p.Name, strings.Join(params, ", "))
	}
	return nil
}
