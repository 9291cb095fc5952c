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

// Package client provides the shared Kubernetes client used to read and write
// snapshot ConfigMaps (cm://namespace/name locations).
//
// GetKubeClient initializes once with sync.Once and returns the cached
// client on every later call. GetKubeClientWithConfig and BuildKubeClient
// build an uncached client from an explicit kubeconfig.
//
// Kubeconfig discovery order is the explicit path, $KUBECONFIG, then
// ~/.kube/config. When none is available the in-cluster service account
// is used.
//
// Tests inject k8s.io/client-go/kubernetes/fake through the serializer
// options instead of touching this package.
package client
