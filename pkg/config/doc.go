/*
Package config loads the pack defaults.

	            +-------------+
	            |   Config    |
	            | (Defaults)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Reads the user defaults file (config-pack-mmip.* or config-pack-zip.*)
- Reads the optional project file (packmmip.*) at the project root
- Writes the user defaults for the config command

🔄 Precedence (lowest first):
1. User defaults
2. Project file
3. Command line flags

Unset fields never override. Booleans are pointers for that reason.

🔍 Example:

	user, _ := config.LoadUser(ctx, dir, false)
	project, err := config.LoadProject(ctx, root)
	if err != nil {
		return err
	}
	cfg := user.Merge(project).Merge(flags)
*/
package config
