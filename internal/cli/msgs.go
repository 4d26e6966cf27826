package cli

const (
	// Command descriptions
	MsgRootShort = "A tiny content-addressed version-control system"
	MsgRootLong  = `gitlet keeps snapshots of the files in the current directory in a
.gitlet/ repository: stage changes with add and rm, record them with
commit, and move between lines of work with branch, checkout, reset and merge.`
	MsgInitShort       = "Create a repository in the current directory"
	MsgAddShort        = "Stage a file for the next commit"
	MsgCommitShort     = "Record the staged changes"
	MsgRmShort         = "Unstage a file or stage its removal"
	MsgLogShort        = "Show the current branch's history"
	MsgGlobalLogShort  = "Show every commit ever made"
	MsgFindShort       = "Print the ids of commits with the given message"
	MsgStatusShort     = "Show branches, staged changes and working-tree changes"
	MsgCheckoutShort   = "Restore a file or switch branches"
	MsgBranchShort     = "Create a branch at the current commit"
	MsgRmBranchShort   = "Delete a branch pointer"
	MsgResetShort      = "Check out a commit and move the current branch to it"
	MsgMergeShort      = "Merge a branch into the current branch"
	MsgMountShort      = "Mount a read-only view of the repository"
	MsgCheckoutExample = `  gitlet checkout <branch>
  gitlet checkout -- <file>
  gitlet checkout <commit id> -- <file>`

	// Usage failures
	MsgNoCommand         = "Please enter a command."
	MsgUnknownCommand    = "No command with that name exists."
	MsgIncorrectOperands = "Incorrect operands."

	// Merge outcomes
	MsgMergeAncestor    = "Given branch is an ancestor of the current branch."
	MsgMergeFastForward = "Current branch fast-forwarded."
	MsgMergeConflict    = "Encountered a merge conflict."

	MsgMounted = "Mounted at %s; interrupt to unmount.\n"
)
