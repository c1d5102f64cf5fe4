package cmd

import "github.com/ardnew/tpt/pkg"

var (
	ErrYAMLMarshal = pkg.NewError("marshal YAML")
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
	ErrVarSyntax   = pkg.NewError("expected name=value")
	ErrVarsFile    = pkg.NewError("load variables file")
	ErrDefine      = pkg.NewError("evaluate definition")
	ErrOpenOutput  = pkg.NewError("open output file")
	ErrTemplates   = pkg.NewError("templates have errors")
	ErrArgs        = pkg.NewError("wrong number of arguments")
	ErrServe       = pkg.NewError("serve templates")
)
