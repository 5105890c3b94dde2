/*
Command bf runs programs for a tape machine with eight instructions:

	>  move the data pointer right
	<  move the data pointer left
	+  increment the current cell, wrapping from 255 to 0
	-  decrement the current cell, wrapping from 0 to 255
	.  write the current cell as one output byte
	,  read one input byte into the current cell; end of input stores 0
	[  jump past the matching ] if the current cell is 0
	]  jump back to the matching [ unless the current cell is 0

The tape is a fixed array of byte cells (30000 by default); moving the
pointer off either end halts the program with an error rather than wrapping.

Programs are validated before anything runs: any other character, or an
unbalanced bracket, is reported with its position and a caret under it.
Execution happens on a worker goroutine, which may be bounded by a step
limit and a wall clock timeout, and which can be stopped at any time.

Subcommands:

	bf read CODE...          run a program once, input from stdin
	bf read --file PATH      run a program read from a file
	bf write TEXT...         generate a program that prints TEXT
	bf repl                  edit and run programs interactively (the default)
	bf tui                   full screen editor with output and tape panes

Engine settings come from flags, then the environment (BF_TAPE_SIZE,
BF_MAX_STEPS, BF_TIMEOUT_MS, BF_COUNT_SUSPENDED), then defaults.
*/
package main
