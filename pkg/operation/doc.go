/*
Package operation runs a pack from start to finish.

	+-------------+
	|  Options    |
	| (immutable) |
	+------+------+
	       |
	+------+------+
	|    Pack     |
	| (Operation) |
	+------+------+
	       |
	+------+------+
	|   archive   |
	|   .Build    |
	+-------------+

🔄 Flow:
1. Validate the project folder and load the preamble
2. Resolve the destination (name, version, extension, bin folder)
3. Confirm before replacing an existing archive
4. Build the archive and wait for the file to close
5. Report the size, then reveal or open the file

Nothing after step 4 runs unless the build succeeded. A dry run stops after
step 2 and lists what would be written instead.

🔍 Example:

	op := operation.NewPackOperation(opts, prompt.New(yes, os.Stdin, os.Stdout), nil)
	runner := operation.NewRunner(zerolog.Ctx(ctx), false)
	if err := runner.Run(ctx, op); err != nil {
		return err
	}
*/
package operation
