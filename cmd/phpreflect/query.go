package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/phpreflect"
)

var classCmd = &cobra.Command{
	Use:   "class <name>",
	Short: "Describe a class, interface, trait or enum",
	Long:  "Prints the hierarchy and members of a class with every doc-comment type resolved to a fully qualified name.",
	Args:  cobra.ExactArgs(1),
	RunE:  runClass,
}

var usesCmd = &cobra.Command{
	Use:   "uses <class>",
	Short: "List the use statements of the file declaring a class",
	Args:  cobra.ExactArgs(1),
	RunE:  runUses,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <class> <short>",
	Short: "Resolve a short type name the way a doc comment in class would",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

var annotationsCmd = &cobra.Command{
	Use:   "annotations <class> [member]",
	Short: "Print the sanitized doc comment of a class or member",
	Long:  "Member may be a method (name or name()), a property ($name) or a constant. A bare name is tried in that order.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAnnotations,
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runClass(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("class", err)
	}
	defer engine.Close()

	c, err := engine.Reflector().Class(args[0])
	if err != nil {
		return outputError("class", err)
	}
	result, err := describeClass(cmdContext(cmd), c)
	if err != nil {
		return outputError("class", err)
	}
	return outputResult(CLIResult{Command: "class", Results: result})
}

func describeClass(ctx context.Context, c *phpreflect.Class) (CLIClass, error) {
	out := CLIClass{
		Name:        c.Name(),
		Kind:        c.Kind(),
		StartLine:   c.StartLine(),
		Annotations: c.Annotations(),
	}
	if c.IsUserDefined() {
		file, err := c.FileName()
		if err != nil {
			return out, err
		}
		out.File = file
	}

	parent, err := c.ParentClass()
	switch {
	case errors.Is(err, phpreflect.ErrNotFound):
		// The parent lives outside the registry.
	case err != nil:
		return out, err
	case parent != nil:
		out.Parent = parent.Name()
	}
	if out.Interfaces, err = c.InterfaceNames(); err != nil {
		return out, err
	}
	if out.Traits, err = c.TraitNames(); err != nil {
		return out, err
	}

	constants, err := c.Constants()
	if err != nil {
		return out, err
	}
	for _, k := range constants {
		out.Constants = append(out.Constants, member(ctx, "constant", k.Name(), k.String(), k.DocTypes))
	}
	props, err := c.Properties()
	if err != nil {
		return out, err
	}
	for _, p := range props {
		out.Properties = append(out.Properties, member(ctx, "property", p.Name(), p.String(), p.DocTypes))
	}
	methods, err := c.Methods()
	if err != nil {
		return out, err
	}
	for _, m := range methods {
		out.Methods = append(out.Methods, member(ctx, "method", m.Name(), m.String(), m.ReturnDocTypes))
	}
	return out, nil
}

// member builds a CLIMember. A malformed doc comment is reported on the
// member rather than failing the whole class.
func member(ctx context.Context, kind, name, signature string, docTypes func(context.Context) ([]string, error)) CLIMember {
	m := CLIMember{Name: name, Kind: kind, Signature: signature}
	names, err := docTypes(ctx)
	if err != nil {
		m.DocError = err.Error()
		return m
	}
	m.DocTypes = names
	return m
}

func runUses(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("uses", err)
	}
	defer engine.Close()

	uses, err := engine.Reflector().UseStatements(cmdContext(cmd), args[0])
	if err != nil {
		return outputError("uses", err)
	}
	results := make([]CLIUse, 0, len(uses))
	for _, u := range uses {
		results = append(results, CLIUse{Name: u.Name, Alias: u.Alias, Kind: string(u.Kind)})
	}
	return outputResult(CLIResult{Command: "uses", Results: results})
}

func runResolve(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("resolve", err)
	}
	defer engine.Close()

	resolved, ok, err := engine.Reflector().ResolveDocType(cmdContext(cmd), args[0], args[1])
	if err != nil {
		return outputError("resolve", err)
	}
	return outputResult(CLIResult{Command: "resolve", Results: CLIResolution{
		Class:    args[0],
		Short:    args[1],
		Resolved: resolved,
		Found:    ok,
	}})
}

func runAnnotations(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("annotations", err)
	}
	defer engine.Close()

	c, err := engine.Reflector().Class(args[0])
	if err != nil {
		return outputError("annotations", err)
	}
	if len(args) == 1 {
		return outputResult(CLIResult{Command: "annotations", Results: CLIAnnotations{
			Target: c.Name(),
			Lines:  c.Annotations(),
		}})
	}

	doc, err := findMember(c, args[1])
	if err != nil {
		return outputError("annotations", err)
	}
	return outputResult(CLIResult{Command: "annotations", Results: CLIAnnotations{
		Target: c.Name() + "::" + args[1],
		Lines:  phpreflect.Annotations(doc),
	}})
}

// findMember looks up a member by the forms annotations accepts.
func findMember(c *phpreflect.Class, name string) (phpreflect.Documented, error) {
	switch {
	case strings.HasPrefix(name, "$"):
		return c.Property(strings.TrimPrefix(name, "$"))
	case strings.HasSuffix(name, "()"):
		return c.Method(strings.TrimSuffix(name, "()"))
	}

	if m, err := c.Method(name); err == nil {
		return m, nil
	} else if !errors.Is(err, phpreflect.ErrNotFound) {
		return nil, err
	}
	if p, err := c.Property(name); err == nil {
		return p, nil
	} else if !errors.Is(err, phpreflect.ErrNotFound) {
		return nil, err
	}
	return c.Constant(name)
}

// outputResult writes the result to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}
