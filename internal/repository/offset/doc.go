// Package offset persists the chat update offset between restarts.
//
// Without a checkpoint a restarted process asks the bot API for offset 1
// and receives every update the server still retains, which would replay
// old commands. The FileRepository stores the offset as YAML on disk.
package offset
