package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mdref/internal/asmfile"
	"mdref/internal/loader"
	"mdref/internal/metadata"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] [assembly|image-file]",
	Short: "Show the types, members and forwarders of an assembly",
	Long: `Show an assembly found on the search path, or an image file given by
path. Without arguments, list the assemblies available on the search path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("format", "pretty", "output format (pretty|toml)")
	inspectCmd.Flags().Bool("private", false, "include private methods and fields")
}

func runInspect(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	showPrivate, err := cmd.Flags().GetBool("private")
	if err != nil {
		return err
	}
	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	cfg := configFrom(cmd.Context())
	l := loader.New(loader.Options{SearchPaths: cfg.SearchPaths})
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		names, listErr := l.Available()
		if listErr != nil {
			return listErr
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	var asm *metadata.Assembly
	source := args[0]
	if asmfile.IsImage(args[0]) {
		asm, err = asmfile.Load(args[0])
	} else {
		asm, err = l.Resolve(args[0])
	}
	if err != nil {
		return err
	}
	if path, ok := l.Path(asm.Name); ok && !asmfile.IsImage(args[0]) {
		source = path
	}

	switch strings.ToLower(format) {
	case "toml":
		return asmfile.WriteTOML(out, asmfile.FromAssembly(asm))
	case "pretty":
		renderAssembly(out, asm, source, inspectStyles(colored), showPrivate)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or toml)", format)
	}
}

type styles struct {
	title, section, typeName, member, dim lipgloss.Style
}

func inspectStyles(colored bool) styles {
	if !colored {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		section:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		typeName: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		member:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		dim:      lipgloss.NewStyle().Faint(true),
	}
}

func renderAssembly(out io.Writer, asm *metadata.Assembly, source string, st styles, showPrivate bool) {
	header := asm.Name
	if asm.Version != "" {
		header += " " + asm.Version
	}
	fmt.Fprintln(out, st.title.Render(header))
	fmt.Fprintln(out, st.dim.Render(source))

	if len(asm.Main.Types) > 0 {
		fmt.Fprintf(out, "\n%s\n", st.section.Render(fmt.Sprintf("types (%d)", len(asm.Main.Types))))
	}
	for _, def := range asm.Main.Types {
		name := def.FullName()
		if len(def.GenericParams) > 0 {
			name += "<" + strings.Join(def.GenericParams, ",") + ">"
		}
		line := "  " + st.typeName.Render(name)
		if def.Base != nil {
			line += st.dim.Render(" : " + def.Base.String())
		}
		fmt.Fprintln(out, line)

		accessor := map[*metadata.MethodDef]bool{}
		for _, p := range def.Properties {
			accessor[p.Getter], accessor[p.Setter] = true, true
			fmt.Fprintf(out, "    %s\n", st.member.Render(propertyLine(p)))
		}
		for _, md := range def.Methods {
			if accessor[md] || (md.Private && !showPrivate) {
				continue
			}
			fmt.Fprintf(out, "    %s\n", st.member.Render(methodLine(md)))
		}
		for _, f := range def.Fields {
			if f.Private && !showPrivate {
				continue
			}
			fmt.Fprintf(out, "    %s\n", st.member.Render(fieldLine(f)))
		}
	}

	var forwarders []metadata.ExportedType
	for _, et := range asm.Main.ExportedTypes {
		if et.Forwarder {
			forwarders = append(forwarders, et)
		}
	}
	if len(forwarders) > 0 {
		fmt.Fprintf(out, "\n%s\n", st.section.Render(fmt.Sprintf("forwarders (%d)", len(forwarders))))
		for _, et := range forwarders {
			name := et.Name
			if et.Namespace != "" {
				name = et.Namespace + "." + et.Name
			}
			fmt.Fprintf(out, "  %s %s\n", name, st.dim.Render("-> "+et.Scope))
		}
	}
}

func methodLine(md *metadata.MethodDef) string {
	var sb strings.Builder
	if md.Private {
		sb.WriteString("private ")
	}
	if md.Static {
		sb.WriteString("static ")
	}
	if md.Return != nil {
		sb.WriteString(md.Return.String())
	} else {
		sb.WriteString("void")
	}
	sb.WriteByte(' ')
	sb.WriteString(md.Name)
	sb.WriteByte('(')
	for i, p := range md.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Type.String())
		if p.Name != "" {
			sb.WriteString(" " + p.Name)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func propertyLine(p *metadata.PropertyDef) string {
	var acc []string
	if p.Getter != nil {
		acc = append(acc, "get;")
	}
	if p.Setter != nil {
		acc = append(acc, "set;")
	}
	static := ""
	if (p.Getter != nil && p.Getter.Static) || (p.Setter != nil && p.Setter.Static) {
		static = "static "
	}
	return fmt.Sprintf("%s%s %s { %s }", static, p.Type, p.Name, strings.Join(acc, " "))
}

func fieldLine(f *metadata.FieldDef) string {
	mods := ""
	if f.Private {
		mods += "private "
	}
	if f.Static {
		mods += "static "
	}
	return fmt.Sprintf("%s%s %s", mods, f.Type, f.Name)
}
