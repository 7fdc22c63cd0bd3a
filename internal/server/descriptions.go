package server

// descriptions maps command node types to the hover text shown for them.
var descriptions = map[string]string{
	"add_command":             "**ADD** is not supported. Use `COPY` instead.",
	"arg_command":             "**ARG** `[--required] [--global] <name>[=<default-value>]`\n\nDeclares a build argument of the target.",
	"build_command":           "**BUILD** `[--platform <platform>] <target-ref> [--<build-arg-key>=<build-arg-value>...]`\n\nBuilds the referenced target as part of the current build.",
	"cache_command":           "**CACHE** `[--sharing <sharing-mode>] [--chmod <octal-format>] [--id <cache-id>] [--persist] <mountpoint>`\n\nDeclares a persistent cache mount for the rest of the target.",
	"cmd_command":             "**CMD** `[\"executable\", \"arg1\", ...]`\n\nSets the default command of the image, same as the Dockerfile `CMD`.",
	"copy_command":            "**COPY** `[options...] <src>... <dest>`\n\nCopies files from the build context or from an artifact of another target.",
	"do_command":              "**DO** `[--allow-privileged] <function-ref> [--<build-arg-key>=<build-arg-value>...]`\n\nExpands and runs the commands of a function.",
	"entrypoint_command":      "**ENTRYPOINT** `[\"executable\", \"arg1\", ...]`\n\nSets the entrypoint of the image, same as the Dockerfile `ENTRYPOINT`.",
	"env_command":             "**ENV** `<key> <value>`\n\nSets an environment variable, same as the Dockerfile `ENV`.",
	"expose_command":          "**EXPOSE** `<port> <port>/<protocol>...`\n\nDocuments the ports the container listens on, same as the Dockerfile `EXPOSE`.",
	"for_command":             "**FOR** `[<options...>] <variable-name> IN <expression>`\n\nRuns the enclosed block once per item of the expression.",
	"from_dockerfile_command": "**FROM DOCKERFILE** `[options...] <context-path>`\n\nInitializes the build environment from a Dockerfile.",
	"from_command":            "**FROM** `<image-name>` | `<target-ref>`\n\nInitializes the build environment from an image or an artifact of another target.",
	"function_command":        "**FUNCTION**\n\nMarks the enclosing block as a function callable with `DO`.",
	"git_clone_command":       "**GIT CLONE** `[--branch <git-ref>] [--keep-ts] <git-url> <dest-path>`\n\nClones a git repository into the build environment.",
	"healthcheck_command":     "**HEALTHCHECK** `[options...] CMD <command> | NONE`\n\nSets the health check of the image, same as the Dockerfile `HEALTHCHECK`.",
	"host_command":            "**HOST** `<hostname> <ip>`\n\nAdds a host entry to the build environment.",
	"if_command":              "**IF** `[<condition-options...>] <condition>`\n\nRuns the enclosed block when the condition succeeds.",
	"import_command":          "**IMPORT** `[--allow-privileged] <project-ref> [AS <alias>]`\n\nAliases a project reference for use in other commands.",
	"lable_command":           "**LABEL** `<key>=<value> <key>=<value>...`\n\nAdds metadata to the image, same as the Dockerfile `LABEL`.",
	"label_command":           "**LABEL** `<key>=<value> <key>=<value>...`\n\nAdds metadata to the image, same as the Dockerfile `LABEL`.",
	"let_command":             "**LET** `<name>=<value>`\n\nDeclares a local variable that can be changed with `SET`.",
	"locally_command":         "**LOCALLY**\n\nRuns the following commands on the host instead of in a container.",
	"project_command":         "**PROJECT** `<org-name>/<project-name>`\n\nAssociates the Earthfile with a project.",
	"run_command":             "**RUN** `[options...] <command>`\n\nRuns a command in the build environment.",
	"save_artifact_command":   "**SAVE ARTIFACT** `[--keep-ts] [--keep-own] [--if-exists] <src> [<artifact-dest-path>] [AS LOCAL <local-path>]`\n\nSaves a file or directory as an artifact of the target.",
	"save_image_command":      "**SAVE IMAGE** `[--cache-from=<cache-image>] [--push] <image-name>...`\n\nSaves the build environment as a docker image.",
	"set_command":             "**SET** `<name>=<value>`\n\nChanges the value of a variable declared with `LET`.",
	"try_command":             "**TRY** (experimental)\n\nRuns the enclosed block and the `FINALLY` block even when it fails.",
	"user_command":            "**USER** `<user>[:<group>]`\n\nSets the user of the following commands, same as the Dockerfile `USER`.",
	"version_command":         "**VERSION** `[<flags>...] <version-number>`\n\nDeclares the Earthfile syntax version.",
	"volume_command":          "**VOLUME** `<path-to-target-mount> ...`\n\nDeclares a mount point of the image, same as the Dockerfile `VOLUME`.",
	"wait_command":            "**WAIT**\n\nWaits for the enclosed commands to complete before continuing.",
	"with_docker_command":     "**WITH DOCKER** `[options...]`\n\nStarts a docker daemon for the enclosed `RUN` command.",
	"workdir_command":         "**WORKDIR** `<path-to-dir>`\n\nSets the working directory, same as the Dockerfile `WORKDIR`.",
}

var commandKeywords = []string{
	"ARG",
	"BUILD",
	"CACHE",
	"CMD",
	"COPY",
	"DO",
	"ENTRYPOINT",
	"ENV",
	"EXPOSE",
	"FOR",
	"FROM",
	"FROM DOCKERFILE",
	"FUNCTION",
	"GIT CLONE",
	"HEALTHCHECK",
	"HOST",
	"IF",
	"IMPORT",
	"LABEL",
	"LET",
	"LOCALLY",
	"PROJECT",
	"RUN",
	"SAVE ARTIFACT",
	"SAVE IMAGE",
	"SET",
	"TRY",
	"USER",
	"VERSION",
	"VOLUME",
	"WAIT",
	"WITH DOCKER",
	"WORKDIR",
}
