// Package errors provides structured, actionable errors for routec.
//
// Every error the compiler reports carries a registered code that maps to a
// category and a short message:
//   - config (E120-E129): missing routes directory, bad exclude globs, bad config values
//   - compile (E103-E108): duplicate patterns, misplaced catch-alls, repeated params
//   - emit (E130-E139): artifact write or publish failures
//   - runtime (E140-E149): route module load failures in the runtime registrar
//
// # Usage
//
//	err := errors.New("E104").
//	    WithPattern("/posts/:param").
//	    WithFiles("posts/[id].go", "posts/[slug].go").
//	    WithSuggestion("Rename or remove one of the files")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E104: Duplicate route pattern
//	//
//	//   posts/[id].go → /posts/:param
//	//   posts/[slug].go → /posts/:param
//	//
//	//   Hint: Rename or remove one of the files
package errors
