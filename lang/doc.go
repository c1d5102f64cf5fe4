// Package lang evaluates tpt templates.
//
// A template is text with embedded directives. Text is copied to the output
// unchanged; directives introduced by '@' and variable references written as
// ${name} are evaluated in place.
//
// # Example
//
//	@# Comments run to the end of the line.
//	@set(greeting, "Hello")
//	@macro(hello, who){${greeting}, ${who}!}
//	@hello("World")
//
//	@foreach(items){
//	  @if(${.} == 3){three}@elsif(${.} > 3){big}@else{${.}}
//	}
//
// # Directives
//
//	@set(id[, expr])         assign a variable
//	@setif(id, expr)         assign only if the variable is empty
//	@unset(id)               remove a variable
//	@push(id, expr...)       append to an array
//	@pop(id)                 remove the last element of an array
//	@if(expr){...}           conditional, with @elsif(expr){...} and @else{...}
//	@foreach(id){...}        loop over an array, binding each element to ${.}
//	@while(expr){...}        loop while expr is non-zero
//	@next, @last             continue or leave the innermost loop
//	@macro(name, p...){...}  define a macro, called as @name(args...)
//	@include(path)           render another template in place
//
// Builtins produce a value and may be used in expressions or as statements:
// @rand, @concat, @eval, @length, @substr, @uc, @lc, @size, @empty,
// @isarray, @isscalar, @compare and @pop.
//
// # Values
//
// Every value is a string. Arithmetic, relational, and logical operators
// convert their operands to 64-bit integers by reading an optional '-'
// followed by decimal digits, and render the result in decimal. A condition
// is true when its integer value is non-zero.
//
// # Errors
//
// Evaluation does not stop at the first error. Each problem is recorded with
// the line it occurred on, the directive is abandoned, and rendering
// continues. [Evaluator.Run] reports whether any errors were recorded and
// [Evaluator.Errors] lists them.
//
// # Embedding
//
// Macro calls and includes run in nested evaluators that share the caller's
// [symbols.Table] and [macro.Store]. Hosts extend the language with native
// functions registered through [WithFunction] or [Evaluator.AddFunction].
package lang
