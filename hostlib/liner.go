package hostlib

import "github.com/peterh/liner"

// Liner is set by the REPL (main.go's runPrompt) before the first Run,
// so save_history/load_history (history.go, mythos_host only) operate
// on the same *liner.State the prompt itself reads from. Declared here
// without a build tag since liner is an ambient REPL dependency
// regardless of which hostlib pieces are linked in.
var Liner *liner.State
