// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package registry

// Default returns the registry of every category gathered from a VSP One
// Block array, in the order the facts document is written.
func Default() *Registry {
	return defaultRegistry
}

var defaultRegistry = MustNew(
	module("audit_log_transfer_dest", "hv_audit_log_transfer_dest_facts"),
	module("clpr", "hv_clpr_facts", "clpr_id"),
	module("disk_drives", "hv_disk_drive_facts", "drive_location_id", "serial_number"),
	module("external_parity_groups", "hv_external_paritygroup_facts", "external_parity_group_id"),
	module("external_path_groups", "hv_external_path_group_facts", "external_path_group_id"),
	module("external_volumes", "hv_external_volume_facts", "ldev_id", "external_volume_id"),
	module("host_groups", "hv_hg_facts", "port_id+host_group_id", "port_id+host_group_name"),
	module("iscsi_remote_connections", "hv_iscsi_remote_connection_facts", "remote_paths_id"),
	module("iscsi_targets", "hv_iscsi_target_facts", "port_id+iscsi_id", "port_id+iscsi_name"),
	module("journals", "hv_journal_facts", "journal_id"),
	module("journal_volumes", "hv_journal_volume_facts", "journal_id"),
	module("ldevs", "hv_ldev_facts", "ldev_id"),
	module("microprocessors", "hv_mp_facts", "mp_id"),
	module("parity_groups", "hv_paritygroup_facts", "parity_group_id"),
	module("quorum_disks", "hv_quorum_disk_facts", "quorum_disk_id"),
	module("remote_connections", "hv_remote_connection_facts", "remote_path_group_id"),
	module("resource_groups", "hv_resource_group_facts", "resource_group_id"),
	module("server_priority_managers", "hv_server_priority_manager_facts", "ldev_id+host_wwn"),
	module("shadow_image_groups", "hv_shadow_image_group_facts", "copy_group_name"),
	module("shadow_image_pairs", "hv_shadow_image_pair_facts", "primary_volume_id+secondary_volume_id"),
	module("snapshots", "hv_snapshot_facts", "primary_volume_id+mirror_unit_id"),
	module("snapshot_groups", "hv_snapshot_group_facts", "snapshot_group_id", "snapshot_group_name"),
	module("snmp_settings", "hv_snmp_settings_facts"),
	module("storage_ports", "hv_storage_port_facts", "port_id"),
	withSpec(module("hardware_installed", "hv_storage_system_monitor_facts"),
		map[string]string{"query": "hardware_installed", "include_component_option": "false"}),
	withSpec(module("channel_boards", "hv_storage_system_monitor_facts", "location"),
		map[string]string{"query": "channel_boards"}),
	module("storage_pools", "hv_storagepool_facts", "pool_id"),
	module("storage_system", "hv_storagesystem_facts", "serial_number"),
	module("users", "hv_user_facts", "user_id"),
	module("user_groups", "hv_user_group_facts", "user_group_id"),
)

func module(category, name string, identity ...string) Descriptor {
	return Descriptor{
		Category:     category,
		Source:       modulePrefix + name,
		IdentityKeys: identity,
	}
}

func withSpec(d Descriptor, spec map[string]string) Descriptor {
	d.Spec = spec
	return d
}
